package payment

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/insurx/insurx-web/internal/domain"
)

// PlanPrice is the checkout line item for one plan. Amount is in minor units.
type PlanPrice struct {
	Plan   domain.Plan
	Name   string
	Amount int64
	Unit   string
}

// Plans lists the purchasable plans in display order.
var Plans = []PlanPrice{
	{Plan: domain.PlanMonthly, Name: "Insurx Monthly Plan", Amount: 50000, Unit: "month"},
	{Plan: domain.PlanAnnual, Name: "Insurx Annual Plan", Amount: 500000, Unit: "year"},
	{Plan: domain.PlanPerUse, Name: "Insurx Per Use", Amount: 25000, Unit: "use"},
}

var printer = message.NewPrinter(language.English)

// Description renders the price for display, e.g. "$5,000 / year".
func (p PlanPrice) Description() string {
	return printer.Sprintf("$%d / %s", p.Amount/100, p.Unit)
}

// PriceFor returns the price of a plan selector. Unknown selectors get the
// monthly price.
func PriceFor(selector string) PlanPrice {
	plan := domain.ParsePlan(selector)
	for _, p := range Plans {
		if p.Plan == plan {
			return p
		}
	}
	return Plans[0]
}
