package ledger

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChartAccount is one account definition in a chart file.
type ChartAccount struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Chart represents a YAML chart-of-accounts seed file, grouped by
// account type.
type Chart struct {
	Assets      []ChartAccount `yaml:"assets"`
	Liabilities []ChartAccount `yaml:"liabilities"`
	Equity      []ChartAccount `yaml:"equity"`
	Income      []ChartAccount `yaml:"income"`
	Expenses    []ChartAccount `yaml:"expenses"`
}

// LoadChart loads a chart of accounts from a YAML file.
func LoadChart(path string) (*Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart file: %w", err)
	}

	var chart Chart
	if err := yaml.Unmarshal(data, &chart); err != nil {
		return nil, fmt.Errorf("failed to parse chart file: %w", err)
	}

	return &chart, nil
}

// typedAccount pairs a chart definition with its account type.
type typedAccount struct {
	ChartAccount
	Type AccountType
}

// all flattens the chart into definition+type pairs, in chart order.
func (c *Chart) all() []typedAccount {
	var out []typedAccount
	appendAll := func(defs []ChartAccount, t AccountType) {
		for _, def := range defs {
			out = append(out, typedAccount{ChartAccount: def, Type: t})
		}
	}
	appendAll(c.Assets, AccountAsset)
	appendAll(c.Liabilities, AccountLiability)
	appendAll(c.Equity, AccountEquity)
	appendAll(c.Income, AccountIncome)
	appendAll(c.Expenses, AccountExpense)
	return out
}

// Seed creates every chart account that does not yet exist, matched by
// code. Existing accounts are left untouched. Returns the number of
// accounts created.
func (c *Chart) Seed(accounts *Accounts) (int, error) {
	created := 0
	for _, def := range c.all() {
		if def.Code == "" || def.Name == "" {
			return created, fmt.Errorf("chart account missing code or name: %+v", def.ChartAccount)
		}

		_, err := accounts.GetByCode(def.Code)
		if err == nil {
			continue
		}
		if err != ErrAccountNotFound {
			return created, err
		}

		if _, err := accounts.Create(def.Code, def.Name, def.Type); err != nil {
			return created, fmt.Errorf("failed to seed account %s: %w", def.Code, err)
		}
		created++
	}

	return created, nil
}
