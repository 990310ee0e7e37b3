package request

type CreateAccountRequest struct {
	Name string `json:"name"`
}
