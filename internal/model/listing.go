package model

import "time"

// Listing is a posted classified ad. University is always the deployment's configured value.
type Listing struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	User            User           `json:"-"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Category        string         `gorm:"size:191;not null;index" json:"category"`
	Price           int            `gorm:"not null;default:0" json:"price"`
	University      string         `gorm:"size:191;index" json:"university"`
	Description     string         `gorm:"type:text" json:"description"`
	ContactPhone    string         `gorm:"size:64" json:"contact_phone"`
	ContactWhatsApp string         `gorm:"column:contact_whatsapp;size:64" json:"contact_whatsapp"`
	ContactTelegram string         `gorm:"size:64" json:"contact_telegram"`
	Images          []ListingImage `json:"-"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
}

// ListingImage rows keep insertion order by id; the first one is the thumbnail.
type ListingImage struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ListingID uint   `gorm:"not null;index" json:"listing_id"`
	URL       string `gorm:"type:text;not null" json:"url"`
}

type ContactsResponse struct {
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp"`
	Telegram string `json:"telegram"`
}

// ListingResponse is the hydrated listing: owner and ordered image urls joined in.
type ListingResponse struct {
	ID          uint             `json:"id"`
	Title       string           `json:"title"`
	Category    string           `json:"category"`
	Price       int              `json:"price"`
	University  string           `json:"university"`
	Description string           `json:"description"`
	Contacts    ContactsResponse `json:"contacts"`
	User        UserResponse     `json:"user"`
	Images      []string         `json:"images"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (l *Listing) ImageURLs() []string {
	urls := make([]string, 0, len(l.Images))
	for _, img := range l.Images {
		urls = append(urls, img.URL)
	}
	return urls
}

func (l *Listing) Response() ListingResponse {
	return ListingResponse{
		ID:          l.ID,
		Title:       l.Title,
		Category:    l.Category,
		Price:       l.Price,
		University:  l.University,
		Description: l.Description,
		Contacts: ContactsResponse{
			Phone:    l.ContactPhone,
			WhatsApp: l.ContactWhatsApp,
			Telegram: l.ContactTelegram,
		},
		User:      l.User.Public(),
		Images:    l.ImageURLs(),
		CreatedAt: l.CreatedAt,
	}
}

func ListingResponses(listings []Listing) []ListingResponse {
	out := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		out = append(out, listings[i].Response())
	}
	return out
}
