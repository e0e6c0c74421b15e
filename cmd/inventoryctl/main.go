package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suparena/inventorystore"
	"github.com/suparena/inventorystore/batch"
	"github.com/suparena/inventorystore/config"
	"github.com/suparena/inventorystore/storagemodels"
)

var (
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
	configFlag  = flag.String("config", "", "Path to yaml configuration file")
	applyFlag   = flag.String("apply", "", "Path to a yaml batch file to execute")
)

// batchFile is the on-disk shape of a batch request. Exactly one of the
// operation lists may be non-empty.
type batchFile struct {
	Creates []storagemodels.RecordInput `yaml:"creates"`
	Updates []struct {
		PartitionKey    string                    `yaml:"partitionKey"`
		ID              string                    `yaml:"id"`
		ExpectedVersion string                    `yaml:"expectedVersion"`
		Patch           storagemodels.RecordPatch `yaml:"patch"`
	} `yaml:"updates"`
	Deletes []struct {
		PartitionKey string `yaml:"partitionKey"`
		ID           string `yaml:"id"`
	} `yaml:"deletes"`
}

func main() {
	flag.Parse()

	if *versionFlag || *vFlag {
		info := inventorystore.GetVersionInfo()
		fmt.Printf("InventoryStore inventoryctl version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	if *applyFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configFlag, *applyFlag); err != nil {
		fmt.Fprintf(os.Stderr, "inventoryctl: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, applyPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := inventorystore.New(ctx, cfg)
	if err != nil {
		return err
	}

	kind, ops, err := readBatchFile(applyPath)
	if err != nil {
		return err
	}

	res, err := client.ExecuteBatch(ctx, kind, ops)
	if err != nil {
		return err
	}

	for _, item := range res.Items {
		if !item.Succeeded() {
			fmt.Printf("operation %d failed: %s (%s)\n", item.InputIndex, item.Message, item.ErrorKind)
		}
	}
	fmt.Printf("%s batch: %d requested, %d succeeded, %d failed\n",
		kind, res.Summary.Requested, res.Summary.Succeeded, res.Summary.Failed)
	if res.Summary.Failed > 0 {
		return fmt.Errorf("%d operations failed", res.Summary.Failed)
	}
	return nil
}

func readBatchFile(path string) (batch.Kind, []batch.Operation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	var file batchFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return "", nil, fmt.Errorf("failed to parse batch file: %w", err)
	}

	nonEmpty := 0
	for _, n := range []int{len(file.Creates), len(file.Updates), len(file.Deletes)} {
		if n > 0 {
			nonEmpty++
		}
	}
	if nonEmpty != 1 {
		return "", nil, fmt.Errorf("batch file must contain exactly one of creates, updates or deletes")
	}

	switch {
	case len(file.Creates) > 0:
		ops := make([]batch.Operation, 0, len(file.Creates))
		for i, in := range file.Creates {
			op, err := batch.NewCreate(in)
			if err != nil {
				return "", nil, fmt.Errorf("create %d: %w", i, err)
			}
			ops = append(ops, op)
		}
		return batch.KindCreate, ops, nil

	case len(file.Updates) > 0:
		ops := make([]batch.Operation, 0, len(file.Updates))
		for i, u := range file.Updates {
			op, err := batch.NewUpdate(u.PartitionKey, u.ID, u.ExpectedVersion, u.Patch)
			if err != nil {
				return "", nil, fmt.Errorf("update %d: %w", i, err)
			}
			ops = append(ops, op)
		}
		return batch.KindUpdate, ops, nil

	default:
		ops := make([]batch.Operation, 0, len(file.Deletes))
		for i, d := range file.Deletes {
			op, err := batch.NewDelete(d.PartitionKey, d.ID)
			if err != nil {
				return "", nil, fmt.Errorf("delete %d: %w", i, err)
			}
			ops = append(ops, op)
		}
		return batch.KindDelete, ops, nil
	}
}
