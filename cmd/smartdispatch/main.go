// README: Entry point; loads config and a dataset, runs the simulation, prints and optionally persists the KPI report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"smartdispatch/internal/config"
	"smartdispatch/internal/data"
	"smartdispatch/internal/infra"
	"smartdispatch/internal/logger"
	"smartdispatch/internal/maps"
	"smartdispatch/internal/modules/dispatch"
	"smartdispatch/internal/modules/driver"
	"smartdispatch/internal/modules/location"
	"smartdispatch/internal/modules/order"
	"smartdispatch/internal/modules/report"
	"smartdispatch/internal/sim"
)

const (
	exitOK = iota
	exitBadInput
	exitBadStrategy
	exitInternal
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInternal
	}

	var (
		datasetName  = flag.String("dataset", "", "dataset name (resolved under the data dir)")
		strategy     = flag.String("strategy", "combinatorial", "baseline|sequential|combinatorial|adaptive|all")
		listDatasets = flag.Bool("list-datasets", false, "list known datasets and exit")
		dataDir      = flag.String("data-dir", cfg.DataDir, "directory holding <name>_orders.csv / <name>_couriers.csv pairs")
		persistDSN   = flag.String("persist", cfg.DB.DSN, "Postgres DSN to persist results (empty to skip)")
		orderLog     = flag.Bool("order-log", false, "print the per-order diagnostic log")
		verbose      = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	level := cfg.Log.Level
	if *verbose {
		level = "debug"
	}
	log, err := logger.New("smartdispatch", cfg.Log.Env, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInternal
	}
	defer log.Sync()

	if *listDatasets {
		datasets, err := data.ListDatasets(*dataDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitBadInput
		}
		for _, ds := range datasets {
			fmt.Println(ds.Name)
		}
		return exitOK
	}

	policies, err := resolvePolicies(*strategy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadStrategy
	}

	if *datasetName == "" {
		fmt.Fprintln(os.Stderr, "missing --dataset")
		return exitBadInput
	}
	ds, err := data.ResolveDataset(*dataDir, *datasetName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadInput
	}
	orders, err := data.LoadOrders(ds.Orders)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadInput
	}
	drivers, err := data.LoadDrivers(ds.Couriers, cfg.Dispatch.DefaultCapacity)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadInput
	}

	oracle := buildOracle(cfg, log)

	var results []*sim.Result
	for _, policy := range policies {
		simulator, err := sim.New(cfg.Dispatch, oracle,
			policy, cloneOrders(orders), cloneDrivers(drivers), log)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitInternal
		}
		res, err := simulator.Run()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitInternal
		}
		results = append(results, res)
	}

	if len(results) == 1 {
		sim.PrintReport(os.Stdout, results[0])
		if *orderLog {
			fmt.Println()
			sim.PrintOrderLog(os.Stdout, results[0])
		}
	} else {
		sim.PrintComparison(os.Stdout, results)
	}

	if *persistDSN != "" {
		if err := persist(*persistDSN, ds.Name, results, log); err != nil {
			log.Errorw("persist failed", "error", err)
			return exitInternal
		}
	}
	return exitOK
}

func resolvePolicies(strategy string) ([]dispatch.Policy, error) {
	if strategy == "all" {
		return []dispatch.Policy{
			dispatch.PolicyBaseline,
			dispatch.PolicySequential,
			dispatch.PolicyCombinatorial,
			dispatch.PolicyAdaptive,
		}, nil
	}
	p, err := dispatch.ParsePolicy(strategy)
	if err != nil {
		return nil, err
	}
	return []dispatch.Policy{p}, nil
}

// buildOracle assembles the distance backend: Haversine by default, the road
// oracle when enabled, and a Redis cache in front when an address is set.
func buildOracle(cfg config.Config, log *logger.Logger) location.Oracle {
	var oracle location.Oracle = location.NewHaversine(cfg.Dispatch.AvgSpeedKmh)
	if cfg.Oracle.UseRoadDistance && cfg.Oracle.MapsAPIKey != "" {
		road, err := maps.NewRoadOracle(cfg.Oracle.MapsAPIKey, cfg.Dispatch.AvgSpeedKmh, cfg.Oracle.DetourFactor, log)
		if err != nil {
			log.Warnw("road oracle unavailable, staying on haversine", "error", err)
		} else {
			oracle = road
		}
	}
	if cfg.Redis.Addr != "" {
		oracle = maps.NewCachedOracle(oracle, infra.NewRedis(cfg.Redis.Addr))
	}
	return oracle
}

func persist(dsn, dataset string, results []*sim.Result, log *logger.Logger) error {
	ctx := context.Background()
	pool, err := infra.NewDB(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := report.NewService(report.NewStore(pool))
	var errs error
	for _, res := range results {
		if err := svc.Persist(ctx, dataset, res); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		log.Infow("run persisted", "run_id", res.RunID, "strategy", res.Policy)
	}
	return errs
}

// cloneOrders gives each strategy its own mutable copy of the input.
func cloneOrders(orders []*order.Order) []*order.Order {
	out := make([]*order.Order, len(orders))
	for i, o := range orders {
		cp := *o
		out[i] = &cp
	}
	return out
}

func cloneDrivers(drivers []*driver.Driver) []*driver.Driver {
	out := make([]*driver.Driver, len(drivers))
	for i, d := range drivers {
		out[i] = driver.New(d.ID, d.Origin, d.VehicleClass, d.Capacity, d.AvailableFrom)
	}
	return out
}
