package domain

// Result is what every mutation and owner-scoped operation hands back to the
// UI. Lower-level failures are folded into it instead of being returned.
type Result struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Errors  []string     `json:"errors,omitempty"`
	Data    *CatalogItem `json:"data,omitempty"`
}

func Ok(message string, data *CatalogItem) Result {
	return Result{Success: true, Message: message, Data: data}
}

func Fail(message string, errs ...string) Result {
	return Result{Success: false, Message: message, Errors: errs}
}
