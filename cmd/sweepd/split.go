package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweeplabs/sweepd/internal/splitter"
)

var (
	splitTrain float64
	splitVal   float64
	splitTest  float64
	splitSeed  int64
)

var splitCmd = &cobra.Command{
	Use:   "split <input-dir> <output-dir>",
	Short: "Split a class-folder dataset into train/val/test sets",
	Long: `Split a class-folder dataset (one subdirectory per class) into
train, validation and test partitions, copying files into
<output-dir>/{train,val,test}/<class>/.

Examples:
  # Default 0.7/0.2/0.1 split
  sweepd split raw/ splits/

  # Custom ratios
  sweepd split raw/ splits/ --train 0.8 --val 0.1 --test 0.1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := splitter.Split(splitter.Config{
			InputDir:   args[0],
			OutputDir:  args[1],
			TrainRatio: splitTrain,
			ValRatio:   splitVal,
			TestRatio:  splitTest,
			Seed:       splitSeed,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Split %d classes: train=%d val=%d test=%d\n",
			result.Classes, result.Train, result.Val, result.Test)
		return nil
	},
}

func init() {
	splitCmd.Flags().Float64Var(&splitTrain, "train", 0.7, "train ratio")
	splitCmd.Flags().Float64Var(&splitVal, "val", 0.2, "validation ratio")
	splitCmd.Flags().Float64Var(&splitTest, "test", 0.1, "test ratio")
	splitCmd.Flags().Int64Var(&splitSeed, "seed", 42, "shuffle seed")
}
