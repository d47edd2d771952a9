// Package risk implements the deterministic scoring engine for financing
// requests. Assess is a pure function: no I/O, no configuration, no clock,
// safe for concurrent use from any number of request handlers.
package risk

import "github.com/sells-group/risk-api/internal/model"

// Level is the categorical risk outcome, ordered from safest to riskiest.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Input carries the factor values for a single assessment. Amount and
// Purpose are required; every other field is optional and a nil pointer
// means "no signal": the corresponding factor is skipped, never scored
// as if the value were zero.
type Input struct {
	Amount            float64
	Purpose           model.RequestPurpose
	AnnualRevenue     *float64
	EmployeeCount     *int
	YearsInBusiness   *int
	DebtToEquityRatio *float64
	CreditScore       *int
}

// Result is the assessment outcome. Score is a 0-100 favorability score:
// higher means more creditworthy, i.e. lower risk. Recommendations holds
// one fixed audit string per evaluated factor and is never empty.
type Result struct {
	Score           float64  `json:"score"`
	Level           Level    `json:"risk_level"`
	Approved        bool     `json:"approved"`
	Recommendations []string `json:"recommendations"`
}

// RecommendationNoSignal is returned alone when every optional factor is
// absent and nothing could be evaluated.
const RecommendationNoSignal = "No financial signals provided; manual review recommended."

// Approval thresholds on the favorability score.
const (
	lowRiskThreshold    = 70.0
	mediumRiskThreshold = 50.0
)

// Assess maps the input factors to a favorability score, risk level,
// approval decision and recommendation list. It is total over its input
// domain: malformed or missing values degrade to skipped factors rather
// than errors.
func Assess(in Input) Result {
	var score float64
	var recs []string

	if pts, rec, ok := scoreLoanCoverage(in.Amount, in.AnnualRevenue); ok {
		score += pts
		recs = append(recs, rec)
	}
	if pts, rec, ok := scoreEmployees(in.EmployeeCount); ok {
		score += pts
		recs = append(recs, rec)
	}
	if pts, rec, ok := scoreYearsInBusiness(in.YearsInBusiness); ok {
		score += pts
		recs = append(recs, rec)
	}
	if pts, rec, ok := scoreDebtToEquity(in.DebtToEquityRatio); ok {
		score += pts
		recs = append(recs, rec)
	}
	if pts, rec, ok := scoreCreditScore(in.CreditScore); ok {
		score += pts
		recs = append(recs, rec)
	}

	if len(recs) == 0 {
		recs = append(recs, RecommendationNoSignal)
	}

	level := levelFor(score)
	return Result{
		Score:           score,
		Level:           level,
		Approved:        level != LevelHigh,
		Recommendations: recs,
	}
}

func levelFor(score float64) Level {
	switch {
	case score >= lowRiskThreshold:
		return LevelLow
	case score >= mediumRiskThreshold:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// scoreLoanCoverage rates the requested amount against annual revenue.
// Max 30 points. Skipped when revenue is absent or not positive; the
// guard keeps a zero revenue from producing a non-finite ratio.
func scoreLoanCoverage(amount float64, revenue *float64) (float64, string, bool) {
	if revenue == nil || *revenue <= 0 {
		return 0, "", false
	}
	ratio := amount / *revenue
	switch {
	case ratio <= 0.3:
		return 30, "Requested amount is well covered by annual revenue.", true
	case ratio <= 0.5:
		return 25, "Requested amount is comfortably within annual revenue.", true
	case ratio <= 0.7:
		return 15, "Requested amount is a significant share of annual revenue; verify cash flow.", true
	default:
		return 5, "Requested amount is high relative to annual revenue; collateral advised.", true
	}
}

// scoreEmployees rates workforce size. Max 20 points.
func scoreEmployees(count *int) (float64, string, bool) {
	if count == nil {
		return 0, "", false
	}
	switch {
	case *count >= 50:
		return 20, "Established workforce indicates operational stability.", true
	case *count >= 11:
		return 15, "Mid-sized team with adequate operational capacity.", true
	case *count >= 5:
		return 10, "Small team; review key-person dependency.", true
	default:
		return 5, "Very small team; business continuity risk.", true
	}
}

// scoreYearsInBusiness rates operating history. Max 20 points.
func scoreYearsInBusiness(years *int) (float64, string, bool) {
	if years == nil {
		return 0, "", false
	}
	switch {
	case *years >= 10:
		return 20, "Long operating history demonstrates resilience.", true
	case *years >= 5:
		return 15, "Established business with a solid track record.", true
	case *years >= 2:
		return 10, "Developing business; review growth trajectory.", true
	default:
		return 5, "Early-stage business; extensive financial review advised.", true
	}
}

// scoreDebtToEquity rates leverage. Max 15 points. A ratio of exactly 0 is
// a valid, best-tier value, which is why absence is checked on the pointer
// and never inferred from the number.
func scoreDebtToEquity(ratio *float64) (float64, string, bool) {
	if ratio == nil {
		return 0, "", false
	}
	switch {
	case *ratio <= 0.5:
		return 15, "Low leverage; strong balance sheet.", true
	case *ratio <= 1.0:
		return 10, "Moderate leverage within acceptable bounds.", true
	default:
		return 5, "High leverage; debt service capacity must be verified.", true
	}
}

// scoreCreditScore rates credit history. Max 15 points.
func scoreCreditScore(score *int) (float64, string, bool) {
	if score == nil {
		return 0, "", false
	}
	switch {
	case *score >= 750:
		return 15, "Excellent credit history; best terms available.", true
	case *score >= 650:
		return 10, "Good credit history; standard terms apply.", true
	default:
		return 5, "Below-average credit history; additional guarantees advised.", true
	}
}
