package eval

// GoldenQueries is the built-in labor-contract evaluation set: typical
// member questions with the vocabulary a relevant page would contain.
var GoldenQueries = []GoldenQuery{
	{"What is the overtime rate?", []string{"overtime", "time and one-half", "time and a half"}},
	{"How many sick days do employees get per year?", []string{"sick leave", "sick days", "sick time"}},
	{"How much vacation after 5 years of service?", []string{"vacation", "annual leave"}},
	{"What is the grievance procedure?", []string{"grievance", "step 1", "step one"}},
	{"How long is the probationary period?", []string{"probation", "probationary"}},
	{"What is the shift differential for night work?", []string{"shift differential", "night premium", "shift premium"}},
	{"When does the collective agreement expire?", []string{"duration", "expire", "term of agreement"}},
	{"What are the regular hours of work?", []string{"hours of work", "work week", "workweek"}},
	{"How is seniority calculated?", []string{"seniority"}},
	{"What happens during a layoff?", []string{"layoff", "lay off", "recall"}},
	{"What is the bereavement leave entitlement?", []string{"bereavement", "compassionate"}},
	{"How much is the meal allowance?", []string{"meal allowance", "meal reimbursement", "per diem"}},
	{"What is the standby pay rate?", []string{"standby", "on-call", "on call"}},
	{"What is the callback minimum?", []string{"call-back", "callback", "call back"}},
	{"What statutory holidays are recognized?", []string{"holiday", "statutory", "general holiday"}},
	{"What is the maternity leave policy?", []string{"maternity", "parental", "pregnancy"}},
	{"How are union dues deducted?", []string{"dues", "deduction", "check-off", "checkoff"}},
	{"What safety equipment does the employer provide?", []string{"safety", "protective equipment", "ppe"}},
	{"What is the wage grid for labourers?", []string{"wage", "rate", "classification"}},
	{"How does the pension plan work?", []string{"pension", "retirement"}},
	{"What dental coverage is provided?", []string{"dental"}},
	{"What is long term disability coverage?", []string{"long term disability", "long-term disability", "ltd"}},
	{"How do I file a grievance?", []string{"grievance", "written", "days"}},
	{"What is the arbitration process?", []string{"arbitration", "arbitrator"}},
	{"What does the contract say about discipline?", []string{"discipline", "disciplinary", "just cause"}},
	{"Can employees take leave of absence without pay?", []string{"leave of absence", "unpaid leave"}},
	{"What is the rate for acting pay?", []string{"acting pay", "acting allowance", "higher classification"}},
	{"How are job postings handled?", []string{"posting", "vacancy", "competition"}},
	{"What is the clothing allowance?", []string{"clothing", "uniform", "boot"}},
	{"What is the mileage reimbursement rate?", []string{"mileage", "kilometre", "kilometer", "vehicle allowance"}},
	{"How much notice is required for termination?", []string{"termination", "notice", "dismissal"}},
	{"What is the cost of living adjustment?", []string{"cost of living", "cola"}},
	{"What are the rules for banked overtime?", []string{"banked", "lieu", "compensatory"}},
	{"How many paid holidays per year?", []string{"holiday", "paid"}},
	{"What is the education leave policy?", []string{"education", "training", "professional development"}},
	{"What life insurance is provided?", []string{"life insurance", "group life"}},
	{"What is the vision care benefit?", []string{"vision", "eye", "optical"}},
	{"What happens when an employee is recalled?", []string{"recall", "laid off", "layoff"}},
	{"What is jury duty leave?", []string{"jury", "court"}},
	{"What is the employee assistance program?", []string{"employee assistance", "eap"}},
	{"How is overtime distributed among employees?", []string{"overtime", "equitabl", "distribut"}},
	{"What are the scheduling rules for weekend shifts?", []string{"schedule", "weekend", "shift"}},
	{"What is the reporting pay guarantee?", []string{"reporting", "minimum", "report"}},
	{"How much is the night shift premium per hour?", []string{"night", "premium", "shift"}},
	{"What is the rate of pay during training?", []string{"training", "rate", "pay"}},
	{"What is the weekly indemnity benefit?", []string{"weekly indemnity", "short term disability", "short-term"}},
	{"Who pays health benefit premiums?", []string{"premium", "health", "benefit"}},
	{"What are management rights under the agreement?", []string{"management rights", "manage", "direct"}},
	{"What is the union recognition clause?", []string{"recognition", "bargaining agent", "sole"}},
	{"How are temporary employees treated?", []string{"temporary", "casual", "term"}},
	{"What is the process for technological change?", []string{"technological change", "technology", "automation"}},
	{"What is the severance pay entitlement?", []string{"severance", "termination pay"}},
}
