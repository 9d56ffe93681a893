package camels

// Component is the CAMELS pillar a variable belongs to
type Component string

const (
	ComponentCapital     Component = "C"
	ComponentAssets      Component = "A"
	ComponentManagement  Component = "M"
	ComponentEarnings    Component = "E"
	ComponentLiquidity   Component = "L"
	ComponentSensitivity Component = "S"
)

// VariableInfo documents a variable for reports and the API
type VariableInfo struct {
	Variable       Variable  `json:"variable"`
	Name           string    `json:"name"`
	Component      Component `json:"component"`
	Formula        string    `json:"formula"`
	Description    string    `json:"description"`
	Interpretation string    `json:"interpretation"`
}

const (
	higherBetter = "Higher value indicates better performance."
	lowerBetter  = "Lower value indicates better performance."
)

var catalogue = [NumVariables]struct {
	component   Component
	formula     string
	description string
}{
	Tier1CapitalRatio: {
		ComponentCapital,
		"Tier 1 Capital / Risk Weighted Assets",
		"The ratio of tier 1 capital to total risk exposure, which comprises credit, settlement, " +
			"market, operational and credit valuation adjustment risk exposures. " +
			"The tier 1 capital ratio must be at least 6% at all times.",
	},
	DebtToEquity: {
		ComponentCapital,
		"Total Liabilities / Total Shareholders' Equity",
		"The proportion of a bank's financing that comes from debt compared to equity. A higher ratio " +
			"amplifies returns but increases financial risk through higher interest obligations.",
	},
	NPLRatio: {
		ComponentAssets,
		"Non-performing Loans / Total Gross Loans",
		"The share of non-performing loans in total loans. Non-performing loans are material loans more than " +
			"90 days past due, or loans unlikely to be repaid in full without realisation of collateral.",
	},
	LoanLossProvisionScaled: {
		ComponentAssets,
		"ABS(Loan Loss Provision Rate - Market Average Loan Loss Provision Rate)",
		"Provisioning far above the market may signal risky lending, far below it may signal an aggressive " +
			"strategy. The provision rate is therefore measured as its absolute deviation from the market rate.",
	},
	AssetGrowth3YAvg: {
		ComponentManagement,
		"AVERAGE(Asset Growth Rate; Asset Growth Rate (t-1); Asset Growth Rate (t-2))",
		"The annual percentage change of total assets averaged over three years, which smooths short-term " +
			"fluctuations and shows the long-term trajectory of the balance sheet.",
	},
	EfficiencyRatio: {
		ComponentManagement,
		"Expenses / Net Operating Income",
		"How effectively a bank uses its resources to generate revenue. A lower ratio means expenses are " +
			"well controlled relative to revenue.",
	},
	ReturnOnAssets: {
		ComponentEarnings,
		"Net Income / Average Total Assets",
		"The ability to generate profit from assets. Since banks are highly leveraged, even an ROA of 1% to 2% " +
			"may represent substantial profit.",
	},
	InterestExpenseToIncome: {
		ComponentEarnings,
		"Interest Expenses / Interest Income",
		"The proportion of interest income consumed by interest expenses. A higher ratio erodes profitability.",
	},
	LiquidityCoverage: {
		ComponentLiquidity,
		"High Quality Liquid Assets / Total Net Cash Outflow (30 day stress period)",
		"The ability to meet short-term obligations with high-quality liquid assets. The regulatory minimum " +
			"is 100%, and many banks keep a buffer well above it.",
	},
	CashRatio: {
		ComponentLiquidity,
		"Liquid Assets / Current Liabilities",
		"The ability to cover short-term liabilities with cash and cash equivalents alone.",
	},
	NonInterestIncomeShare: {
		ComponentSensitivity,
		"Non Interest Income / (Non Interest Income + Interest Income)",
		"The portion of income from fees, commissions and other activities unrelated to interest. Such income " +
			"is less sensitive to interest rate movements.",
	},
}

// Describe returns the catalogue entry for v. The interpretation follows
// the direction of the supplied threshold.
func Describe(v Variable, t Threshold) VariableInfo {
	entry := catalogue[v]
	interpretation := lowerBetter
	if t.HigherIsBetter {
		interpretation = higherBetter
	}
	return VariableInfo{
		Variable:       v,
		Name:           v.String(),
		Component:      entry.component,
		Formula:        entry.formula,
		Description:    entry.description,
		Interpretation: interpretation,
	}
}

// Catalogue documents every variable under the given scheme
func Catalogue(s Scheme) []VariableInfo {
	out := make([]VariableInfo, 0, NumVariables)
	for _, v := range Variables() {
		out = append(out, Describe(v, s.Thresholds[v]))
	}
	return out
}

var bandInfo = map[Band]struct {
	analysis    string
	description string
}{
	BandA: {
		"Strong",
		"Strong performance that consistently provides for safe and sound operations. Key measures trend " +
			"positively and the institution is resistant to external economic and financial disturbances. " +
			"No cause for supervisory concern.",
	},
	BandB: {
		"Satisfactory",
		"Satisfactory performance that provides for safe and sound operations. The institution withstands " +
			"business fluctuations well, though areas of weakness could develop into greater concern.",
	},
	BandC: {
		"Fair (watch category)",
		"Performance flawed to some degree and of supervisory concern. Key measures are flat or negative and " +
			"the institution could deteriorate if weaknesses are not corrected. Failure remains a remote probability.",
	},
	BandD: {
		"Marginal (some risk of failure)",
		"Poor performance of serious supervisory concern. Left unchecked it could threaten viability. A high " +
			"potential for failure is present but not yet imminent.",
	},
	BandE: {
		"Unsatisfactory (high degree of failure evident)",
		"Critically deficient performance in need of immediate remedial attention. High probability of failure " +
			"without emergency assistance, merger or acquisition.",
	},
}

// BandInfo documents a band for reports and the API
type BandInfo struct {
	Band        Band    `json:"band"`
	Analysis    string  `json:"analysis"`
	Description string  `json:"description"`
	Grades      []Grade `json:"grades"`
}

// BandCatalogue documents every band with the grades it contains
func BandCatalogue() []BandInfo {
	out := make([]BandInfo, 0, len(bandInfo))
	for _, b := range Bands() {
		info := BandInfo{Band: b, Analysis: b.Analysis(), Description: b.Description()}
		for _, g := range Grades() {
			if g.Band() == b {
				info.Grades = append(info.Grades, g)
			}
		}
		out = append(out, info)
	}
	return out
}
