package synonyms

// Builtin holds the built-in synonym mappings for common labor contract
// terms: canonical term -> synonyms.
var Builtin = map[string][]string{
	// Leave types
	"sick leave":        {"sick time", "sick days", "illness leave", "medical leave", "sick pay"},
	"vacation":          {"annual leave", "vacation leave", "paid time off", "pto", "holiday leave"},
	"bereavement":       {"bereavement leave", "compassionate leave", "funeral leave"},
	"maternity":         {"maternity leave", "parental leave", "pregnancy leave"},
	"paternity":         {"paternity leave", "parental leave"},
	"lieu time":         {"banked time", "time in lieu", "lieu days", "compensatory time", "comp time"},
	"statutory holiday": {"general holiday", "stat holiday", "named holiday", "public holiday"},
	"education leave":   {"professional development", "training leave", "study leave", "ed leave"},
	"leave of absence":  {"loa", "personal leave", "unpaid leave"},
	"jury duty":         {"court leave", "jury leave", "witness leave"},
	// Compensation
	"wages":              {"pay", "salary", "compensation", "earnings", "remuneration"},
	"overtime":           {"ot", "overtime pay", "overtime rate", "time and a half", "overtime compensation"},
	"step increase":      {"increment", "step progression", "wage step", "grid step", "pay step"},
	"acting pay":         {"acting allowance", "temporary assignment pay", "higher duties pay"},
	"standby":            {"on-call", "standby pay", "on call", "standby allowance"},
	"callback":           {"call-back", "call-in", "call back pay", "call-back pay"},
	"shift differential": {"shift premium", "evening premium", "night premium", "weekend premium"},
	"cola":               {"cost of living", "cost of living adjustment", "cost-of-living"},
	// Benefits
	"benefits":       {"benefit", "employee benefits", "fringe benefits"},
	"dental":         {"dental plan", "dental coverage", "dental benefits"},
	"health":         {"health plan", "health coverage", "medical", "health benefits"},
	"pension":        {"retirement", "retirement plan", "pension plan"},
	"ltd":            {"long term disability", "long-term disability", "ltdi"},
	"std":            {"short term disability", "short-term disability", "stdi", "weekly indemnity"},
	"eap":            {"employee assistance", "employee assistance program", "employee assistance plan"},
	"life insurance": {"group life", "group life insurance", "ad&d"},
	"vision":         {"vision care", "eye care", "optical", "vision benefits"},
	// Employment
	"seniority":          {"tenure", "years of service", "service time"},
	"probation":          {"probationary period", "trial period", "probationary"},
	"termination":        {"dismissal", "firing", "discharge", "separation"},
	"layoff":             {"lay off", "layoffs", "reduction in force", "rif"},
	"recall":             {"callback", "call back", "return to work"},
	"discipline":         {"disciplinary action", "progressive discipline", "corrective action"},
	"job posting":        {"posting", "vacancy", "job competition", "internal posting"},
	"job classification": {"classification", "job class", "position classification"},
	// Union / Bargaining
	"grievance":            {"grievances", "complaint", "dispute", "appeal"},
	"union":                {"local", "bargaining unit", "association"},
	"collective agreement": {"collective bargaining agreement", "cba", "contract", "labor agreement"},
	"dues":                 {"union dues", "membership dues"},
	"arbitration":          {"arbitrations", "arbitrator", "arbitral"},
	"union steward":        {"steward", "shop steward", "union representative", "union rep"},
	// Scheduling / Hours
	"shift":          {"shifts", "work shift", "tour of duty"},
	"hours of work":  {"work hours", "working hours", "scheduled hours", "regular hours"},
	"flexible hours": {"flex time", "flextime", "flexible schedule", "variable hours"},
	// Safety
	"safety": {"occupational health", "ohs", "workplace safety", "health and safety"},
	"ppe":    {"personal protective equipment", "protective equipment", "safety equipment"},
	"whmis":  {"workplace hazardous materials", "hazardous materials information"},
	// Other
	"clothing allowance": {"uniform allowance", "boot allowance", "safety footwear"},
	"mileage":            {"vehicle allowance", "travel allowance", "km rate", "kilometre rate"},
	"meal allowance":     {"meal reimbursement", "per diem", "subsistence"},
}
