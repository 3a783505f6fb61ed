package main

import (
	"github.com/spf13/cobra"

	"github.com/yurifrl/bankrec/pkg/index"
)

type filters struct {
	startDate string
	endDate   string
	minAmount string
	maxAmount string
	payee     string
}

func (f *filters) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.startDate, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.endDate, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.minAmount, "min", "", "Minimum amount (negative for debits)")
	cmd.Flags().StringVar(&f.maxAmount, "max", "", "Maximum amount")
	cmd.Flags().StringVar(&f.payee, "payee", "", "Filter by counterparty (case insensitive)")
}

func (f *filters) toFilter() (index.Filter, error) {
	return index.ParseFilter(f.startDate, f.endDate, f.minAmount, f.maxAmount, f.payee)
}
