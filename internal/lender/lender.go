package lender

import (
	"fmt"
	"strings"
)

// Lender is one static catalog entry. Records are read-only after load.
type Lender struct {
	Name                string   `json:"name"`
	InterestRate        string   `json:"interest_rate"`
	MaximumAmount       string   `json:"maximum_amount"`
	About               string   `json:"about"`
	KeyPoints           []string `json:"key_points"`
	Currency            string   `json:"currency"`
	CollateralRequired  bool     `json:"collateral_required"`
	NonCollateralOption bool     `json:"non_collateral_option"`
	USCosignerRequired  bool     `json:"us_cosigner_required"`
	Country             string   `json:"country"`
	UniversityCountry   string   `json:"university_country"`
}

// Catalog returns the static lender list. The catalog is loaded once at startup
// and never mutated afterwards.
func Catalog() []Lender {
	return catalog
}

var catalog = []Lender{
	{
		Name:                "Axis Bank",
		InterestRate:        "10.5%",
		MaximumAmount:       "INR 20,000,000",
		About:               "Finance your studies abroad with Axis Bank's flexible loan amounts.",
		KeyPoints:           []string{"Processing fee up to 1% + GST", "Tenure up to 10 years"},
		Currency:            "INR",
		CollateralRequired:  true,
		NonCollateralOption: true,
		USCosignerRequired:  false,
		Country:             "India",
		UniversityCountry:   "Any",
	},
	{
		Name:                "HDFC Credila",
		InterestRate:        "11.25%",
		MaximumAmount:       "INR 15,000,000",
		About:               "Education loans tailored for students heading overseas.",
		KeyPoints:           []string{"No margin money required", "Tenure up to 12 years"},
		Currency:            "INR",
		CollateralRequired:  false,
		NonCollateralOption: true,
		USCosignerRequired:  false,
		Country:             "India",
		UniversityCountry:   "Any",
	},
	{
		Name:                "SBI Global Ed-Vantage",
		InterestRate:        "10.15%",
		MaximumAmount:       "INR 15,000,000",
		About:               "State Bank of India scheme for full-time courses abroad.",
		KeyPoints:           []string{"Collateral backed", "Interest concession for women"},
		Currency:            "INR",
		CollateralRequired:  true,
		NonCollateralOption: false,
		USCosignerRequired:  false,
		Country:             "India",
		UniversityCountry:   "Any",
	},
	{
		Name:                "Prodigy Finance",
		InterestRate:        "12.9%",
		MaximumAmount:       "USD 220,000",
		About:               "No-cosigner loans for international postgraduate students.",
		KeyPoints:           []string{"No collateral", "Funds disbursed to the university"},
		Currency:            "USD",
		CollateralRequired:  false,
		NonCollateralOption: true,
		USCosignerRequired:  false,
		Country:             "Any",
		UniversityCountry:   "USA",
	},
	{
		Name:                "MPOWER Financing",
		InterestRate:        "13.98%",
		MaximumAmount:       "USD 100,000",
		About:               "Fixed-rate loans for international students in the US and Canada.",
		KeyPoints:           []string{"No cosigner", "Builds US credit history"},
		Currency:            "USD",
		CollateralRequired:  false,
		NonCollateralOption: true,
		USCosignerRequired:  false,
		Country:             "Any",
		UniversityCountry:   "USA",
	},
	{
		Name:                "Sallie Mae",
		InterestRate:        "6.37%",
		MaximumAmount:       "USD 200,000",
		About:               "US private student loans, international students need a US cosigner.",
		KeyPoints:           []string{"Competitive rates with cosigner", "Flexible repayment options"},
		Currency:            "USD",
		CollateralRequired:  false,
		NonCollateralOption: true,
		USCosignerRequired:  true,
		Country:             "Any",
		UniversityCountry:   "USA",
	},
}

// FormatCatalog renders the lender list as the plain-text block embedded in the
// recommendation prompt: one entry per lender, entries separated by blank lines.
func FormatCatalog(lenders []Lender) string {
	formatted := make([]string, 0, len(lenders))
	for _, l := range lenders {
		formatted = append(formatted, fmt.Sprintf(
			"%s:\n- Interest Rate: %s\n- Maximum Amount: %s\n",
			l.Name, l.InterestRate, l.MaximumAmount,
		))
	}
	return strings.Join(formatted, "\n\n")
}
