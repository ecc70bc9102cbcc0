package domain

// ApplyResult aggregates the outcome of applying one template to a date
// range. Errors never abort the batch; they are collected per rule and per
// date so the caller sees everything that went wrong.
type ApplyResult struct {
	Success            bool     `json:"success"`
	Message            string   `json:"message"`
	PlanningsCreated   int      `json:"planningsCreated"`
	AssignmentsCreated int      `json:"assignmentsCreated"`
	Errors             []string `json:"errors"`
	Warnings           []string `json:"warnings"`
}

// IntegrationResult is the outcome of a full plan generation: template
// composition, generator delegation and final validation.
type IntegrationResult struct {
	Success            bool     `json:"success"`
	Message            string   `json:"message"`
	PlanningsGenerated int      `json:"planningsGenerated"`
	AssignmentsCreated int      `json:"assignmentsCreated"`
	Conflicts          []string `json:"conflicts"`
	Warnings           []string `json:"warnings"`
}

// ValidationResult is structured data, never an error value: the caller
// decides whether to reject or publish the plan.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
