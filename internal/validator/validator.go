// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"budgetpace/internal/generator"
	"budgetpace/internal/models"
)

// currencyCodes lists the ISO 4217 codes budgets may be denominated in.
const currencyCodes = `
	AED AFN ALL AMD ANG AOA ARS AUD AWG AZN BAM BBD BDT BGN BHD BIF
	BMD BND BOB BRL BSD BTN BWP BYN BZD CAD CDF CHF CLP CNY COP CRC
	CUP CVE CZK DJF DKK DOP DZD EGP ERN ETB EUR FJD FKP GBP GEL GHS
	GIP GMD GNF GTQ GYD HKD HNL HRK HTG HUF IDR ILS INR IQD IRR ISK
	JMD JOD JPY KES KGS KHR KMF KPW KRW KWD KYD KZT LAK LBP LKR LRD
	LSL LYD MAD MDL MGA MKD MMK MNT MOP MRU MUR MVR MWK MXN MYR MZN
	NAD NGN NIO NOK NPR NZD OMR PAB PEN PGK PHP PKR PLN PYG QAR RON
	RSD RUB RWF SAR SBD SCR SDG SEK SGD SHP SLE SOS SRD SSP STN SVC
	SYP SZL THB TJS TMT TND TOP TRY TTD TWD TZS UAH UGX USD UYU UZS
	VES VND VUV WST XAF XCD XOF XPF YER ZAR ZMW ZWL
`

var validCurrencies = setOf(strings.Fields(currencyCodes)...)

// Register installs the budget enum and currency validators on Gin's
// binding engine. It is safe to call more than once.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("iso4217", validateISO4217)
		_ = v.RegisterValidation("budget_type", oneOf(models.BudgetTypeMonthly, models.BudgetTypeAnnual, models.BudgetTypePayPeriod))
		_ = v.RegisterValidation("budget_strategy", oneOf(models.StrategyFixed, models.StrategyRollover, models.StrategyZeroBased, models.StrategyFiftyThirtyTwenty))
		_ = v.RegisterValidation("rollover_type", oneOf(models.RolloverNone, models.RolloverMonthly, models.RolloverQuarterly, models.RolloverAnnual))
		_ = v.RegisterValidation("category_group", oneOf(models.GroupNeed, models.GroupWant, models.GroupSaving))
		_ = v.RegisterValidation("pay_frequency", oneOf(models.PayWeekly, models.PayBiweekly, models.PaySemimonthly, models.PayMonthly))
		_ = v.RegisterValidation("generator_profile", oneOf(generator.ProfileComfortable, generator.ProfileOnTrack, generator.ProfileAggressive))
	}
}

func validateISO4217(fl validator.FieldLevel) bool {
	return validCurrencies[fl.Field().String()]
}

// oneOf accepts a string field equal to one of the given enum values.
// Pointer fields are dereferenced by the validator before the call.
func oneOf[T ~string](values ...T) validator.Func {
	allowed := setOf(values...)
	return func(fl validator.FieldLevel) bool {
		return allowed[fl.Field().String()]
	}
}

func setOf[T ~string](values ...T) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[string(v)] = true
	}
	return set
}
