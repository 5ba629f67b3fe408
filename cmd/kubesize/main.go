package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"k8s.io/klog/v2"

	"github.com/kubesize/kubesize/internal/accounting"
	"github.com/kubesize/kubesize/internal/app"
	"github.com/kubesize/kubesize/internal/collect"
	"github.com/kubesize/kubesize/internal/config"
	"github.com/kubesize/kubesize/internal/domain"
	kk "github.com/kubesize/kubesize/internal/infrastructure/k8s"
	"github.com/kubesize/kubesize/internal/infrastructure/mock"
	"github.com/kubesize/kubesize/internal/ui"
)

// stringList collects a repeatable flag value.
type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	klog.InitFlags(nil)

	cfg := config.Defaults()
	var (
		report      string
		profile     string
		output      string
		interactive bool
		useMock     bool
		excludes    stringList
	)
	flag.StringVar(&report, "report", "namespaces", "report type: namespaces | nodes | workloads")
	flag.StringVar(&cfg.Kubeconfig, "kubeconfig", cfg.Kubeconfig, "path to kubeconfig")
	flag.StringVar(&cfg.Context, "context", cfg.Context, "kube context")
	flag.StringVar(&cfg.Namespace, "namespace", cfg.Namespace, "restrict the report to one namespace")
	flag.BoolVar(&cfg.SkipSystem, "skip-system", cfg.SkipSystem, "skip platform namespaces (openshift-*, kube-*, default, ...)")
	flag.Var(&excludes, "exclude", "exclude a namespace (repeatable)")
	flag.BoolVar(&cfg.NoTop, "no-top", cfg.NoTop, "skip the live-usage snapshot (faster, no metrics API needed)")
	flag.StringVar(&cfg.Sort, "sort", cfg.Sort, "sort key: cpu-req | cpu-lim | mem-req | mem-lim | pods | name")
	flag.StringVar(&cfg.Unit, "unit", cfg.Unit, "memory display unit: MiB | GiB")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent namespace fetches (1 = sequential with progress)")
	flag.StringVar(&profile, "profile", os.Getenv("KUBESIZE_PROFILE"), "optional YAML profile with defaults")
	flag.StringVar(&output, "output", "text", "output format: text | json")
	flag.BoolVar(&interactive, "interactive", false, "browse the snapshot in an interactive view")
	flag.BoolVar(&useMock, "mock", false, "use fixture data instead of a cluster")
	flag.Parse()

	if profile != "" {
		// Precedence is flag > env > profile > default. The profile path
		// is itself a flag, so the layering happens after parsing:
		// capture the flags the user actually set, resolve
		// default/profile/env in order, then put those flags back on top.
		// The exclude flag merges additively below and is left out.
		explicit := map[string]string{}
		flag.Visit(func(f *flag.Flag) {
			if f.Name != "exclude" {
				explicit[f.Name] = f.Value.String()
			}
		})
		resolved, err := config.Resolve(profile)
		if err != nil {
			klog.Fatalf("profile: %v", err)
		}
		cfg = resolved
		for name, value := range explicit {
			if err := flag.Set(name, value); err != nil {
				klog.Fatalf("flag -%s: %v", name, err)
			}
		}
	}
	cfg.Exclude = append(cfg.Exclude, excludes...)
	if err := cfg.Validate(); err != nil {
		klog.Fatalf("configuration: %v", err)
	}

	ctx := context.Background()

	var src domain.ClusterDataSource
	if useMock {
		src = mock.New()
	} else {
		repo, err := kk.New(cfg.Kubeconfig, cfg.Context)
		if err != nil {
			klog.Fatalf("cannot reach the cluster: %v", err)
		}
		if err := repo.CheckAccess(ctx); err != nil {
			klog.Fatalf("not logged in or no access: %v", err)
		}
		src = repo
	}
	divisor, unitName := accounting.UnitDivisor(cfg.Unit)

	opts := collect.Options{
		Namespace:  cfg.Namespace,
		SkipSystem: cfg.SkipSystem,
		Exclude:    cfg.Exclude,
		NoTop:      cfg.NoTop,
		SortKey:    cfg.Sort,
		Workers:    cfg.Workers,
	}
	if cfg.Workers <= 1 && output == "text" && !interactive {
		opts.Progress = os.Stderr
	}
	collector := collect.New(src, opts)

	if interactive {
		runInteractive(ctx, collector, divisor, unitName, cfg.Sort)
		return
	}

	var (
		result *domain.ClusterReport
		err    error
	)
	switch report {
	case "namespaces":
		result, err = collector.Namespaces(ctx)
	case "nodes":
		result, err = collector.Nodes(ctx)
	case "workloads":
		if cfg.Namespace == "" {
			klog.Fatalf("the workloads report needs -namespace")
		}
		result, err = collector.Workloads(ctx, cfg.Namespace)
	default:
		klog.Fatalf("unknown report type %q", report)
	}
	if err != nil {
		klog.Fatalf("report failed: %v", err)
	}
	accounting.Finalize(result, divisor)

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			klog.Fatalf("encoding report: %v", err)
		}
		return
	}

	switch report {
	case "namespaces":
		fmt.Println(ui.Namespaces(result, unitName, !cfg.NoTop))
	case "nodes":
		fmt.Println(ui.Nodes(result, unitName))
	case "workloads":
		fmt.Println(ui.Workloads(result, unitName))
	}
}

// runInteractive collects both the namespace and node snapshots up
// front, then hands them to the browser. Nothing refreshes afterwards.
func runInteractive(ctx context.Context, collector *collect.Collector, divisor float64, unitName, sortKey string) {
	nsReport, err := collector.Namespaces(ctx)
	if err != nil {
		klog.Fatalf("report failed: %v", err)
	}
	nodeReport, err := collector.Nodes(ctx)
	if err != nil {
		klog.Fatalf("report failed: %v", err)
	}
	accounting.Finalize(nsReport, divisor)
	accounting.Finalize(nodeReport, divisor)

	m := app.New(nsReport, nodeReport, unitName, sortKey)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		klog.Fatalf("interactive view: %v", err)
	}
}
