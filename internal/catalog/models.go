package catalog

import "time"

type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	PriceCents  int       `json:"price_cents"`
	ImageURL    string    `json:"image_url"`
	DemoURL     string    `json:"demo_url"`
	DownloadURL string    `json:"-"` // handed out only after a purchase check
	SalesCount  int       `json:"sales_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Review struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

type Inquiry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"` // OPEN | CLOSED
	CreatedAt time.Time `json:"created_at"`
}

const (
	InquiryOpen   = "OPEN"
	InquiryClosed = "CLOSED"
)
