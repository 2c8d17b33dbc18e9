package assignments

import "time"

// Assignment links a customer to the employee permitted to handle their
// orders. The (customer, employee) pair is unique.
type Assignment struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	EmployeeID int64     `json:"employee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateAssignmentRequest is the create payload.
type CreateAssignmentRequest struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0"`
	EmployeeID int64 `json:"employee_id" validate:"required,gt=0"`
}

// ListFilter narrows the assignment list.
type ListFilter struct {
	CustomerID int64
	EmployeeID int64
}
