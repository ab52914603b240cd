package qualification

import "solar-checker/internal/common/validation"

const responseSchemaJSON = `{
	"type": "object",
	"required": ["status"],
	"properties": {
		"status": {"type": "string", "enum": ["approved", "borderline", "not_qualified"]},
		"explanation": {"type": ["string", "null"]},
		"system_size_kw": {"type": ["number", "null"], "minimum": 0},
		"systemSizeKW": {"type": ["number", "null"], "minimum": 0},
		"lifetime_savings": {"type": ["number", "null"]},
		"totalSavings": {"type": ["number", "null"]},
		"total_cost": {"type": ["number", "null"], "minimum": 0},
		"net_cost_after_incentives": {"type": ["number", "null"]},
		"monthly_payment": {"type": ["number", "null"]},
		"monthlyPayment": {"type": ["number", "null"]},
		"payback_years": {"type": ["number", "null"]},
		"paybackYears": {"type": ["number", "null"]},
		"systemCost": {"type": ["object", "null"]},
		"location": {
			"type": ["object", "null"],
			"properties": {
				"city": {"type": "string"},
				"state": {"type": "string"},
				"zip_code": {"type": "string"}
			}
		},
		"loan_terms": {"type": ["object", "null"]},
		"loanTerms": {"type": ["object", "null"]},
		"calculations": {"type": ["object", "null"]}
	}
}`

var responseSchema = validation.MustCompileSchema(responseSchemaJSON)
