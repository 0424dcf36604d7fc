package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"studykwork/internal/model"
	"studykwork/internal/repository"
	"studykwork/internal/storage"
)

type ImageStore interface {
	Save(upload storage.Upload) (string, error)
	Remove(url string) error
}

type ListingCache interface {
	GetListing(ctx context.Context, id uint) (*model.ListingResponse, bool, error)
	SetListing(ctx context.Context, listing model.ListingResponse) error
	GetFeed(ctx context.Context) ([]model.ListingResponse, bool, error)
	SetFeed(ctx context.Context, feed []model.ListingResponse) error
	Invalidate(ctx context.Context, ids ...uint) error
}

type ListingEventPublisher interface {
	Publish(ctx context.Context, event model.ListingEvent) error
}

type ListingSettings struct {
	University     string
	PlaceholderURL string
	MaxImages      int
}

type ListingService struct {
	listingRepo *repository.ListingRepository
	images      ImageStore
	cache       ListingCache
	publisher   ListingEventPublisher
	settings    ListingSettings
}

// ListInput holds the optional public feed filters; nil bounds are unbounded.
type ListInput struct {
	Search   string
	Category string
	MinPrice *int
	MaxPrice *int
}

type CreateListingInput struct {
	OwnerID     uint
	Title       string
	Category    string
	Price       string
	Description string
	Phone       string
	WhatsApp    string
	Telegram    string
	Images      []storage.Upload
}

// NewListingService accepts nil cache and publisher; the corresponding features are then off.
func NewListingService(
	listingRepo *repository.ListingRepository,
	images ImageStore,
	cache ListingCache,
	publisher ListingEventPublisher,
	settings ListingSettings,
) *ListingService {
	if settings.MaxImages <= 0 {
		settings.MaxImages = 4
	}
	return &ListingService{
		listingRepo: listingRepo,
		images:      images,
		cache:       cache,
		publisher:   publisher,
		settings:    settings,
	}
}

func (s *ListingService) List(ctx context.Context, input ListInput) ([]model.ListingResponse, error) {
	unfiltered := input.isEmpty()
	if unfiltered && s.cache != nil {
		feed, ok, err := s.cache.GetFeed(ctx)
		if err != nil {
			slog.WarnContext(ctx, "listing feed cache read failed", "error", err)
		} else if ok {
			return feed, nil
		}
	}

	list, err := s.listingRepo.List(ctx, repository.ListingFilter{
		University: s.settings.University,
		Search:     input.Search,
		Category:   strings.TrimSpace(input.Category),
		MinPrice:   input.MinPrice,
		MaxPrice:   input.MaxPrice,
	})
	if err != nil {
		return nil, err
	}
	feed := model.ListingResponses(list)

	if unfiltered && s.cache != nil {
		if err := s.cache.SetFeed(ctx, feed); err != nil {
			slog.WarnContext(ctx, "listing feed cache write failed", "error", err)
		}
	}
	return feed, nil
}

func (s *ListingService) Get(ctx context.Context, id uint) (*model.ListingResponse, error) {
	if id == 0 {
		return nil, ErrListingNotFound
	}
	if s.cache != nil {
		cached, ok, err := s.cache.GetListing(ctx, id)
		if err != nil {
			slog.WarnContext(ctx, "listing cache read failed", "listing_id", id, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// other universities are indistinguishable from missing rows
	if listing == nil || listing.University != s.settings.University {
		return nil, ErrListingNotFound
	}

	resp := listing.Response()
	if s.cache != nil {
		if err := s.cache.SetListing(ctx, resp); err != nil {
			slog.WarnContext(ctx, "listing cache write failed", "listing_id", id, "error", err)
		}
	}
	return &resp, nil
}

func (s *ListingService) Create(ctx context.Context, input CreateListingInput) (*model.ListingResponse, error) {
	title := strings.TrimSpace(input.Title)
	category := strings.TrimSpace(input.Category)
	description := strings.TrimSpace(input.Description)
	if input.OwnerID == 0 || title == "" || category == "" || description == "" {
		return nil, ErrInvalidInput
	}
	if !model.IsKnownCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if len(input.Images) > s.settings.MaxImages {
		return nil, fmt.Errorf("%w: got %d, at most %d allowed", ErrTooManyImages, len(input.Images), s.settings.MaxImages)
	}

	urls, err := s.saveImages(input.Images)
	if err != nil {
		return nil, err
	}
	saved := urls
	if len(urls) == 0 {
		urls = []string{s.settings.PlaceholderURL}
	}

	listing := &model.Listing{
		UserID:          input.OwnerID,
		Title:           title,
		Category:        category,
		Price:           ParsePrice(input.Price),
		University:      s.settings.University,
		Description:     description,
		ContactPhone:    strings.TrimSpace(input.Phone),
		ContactWhatsApp: strings.TrimSpace(input.WhatsApp),
		ContactTelegram: strings.TrimSpace(input.Telegram),
	}
	for _, url := range urls {
		listing.Images = append(listing.Images, model.ListingImage{URL: url})
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		s.removeImages(ctx, saved)
		return nil, err
	}

	created, err := s.listingRepo.GetByID(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, ErrListingNotFound
	}

	s.invalidate(ctx)
	s.publish(ctx, model.ListingEventCreated, created)

	resp := created.Response()
	return &resp, nil
}

func (s *ListingService) ListMine(ctx context.Context, ownerID uint) ([]model.ListingResponse, error) {
	if ownerID == 0 {
		return nil, ErrInvalidInput
	}
	list, err := s.listingRepo.ListByUserID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return model.ListingResponses(list), nil
}

func (s *ListingService) Delete(ctx context.Context, id, callerID uint) error {
	if id == 0 {
		return ErrListingNotFound
	}
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if listing == nil {
		return ErrListingNotFound
	}
	if listing.UserID != callerID {
		return ErrForbidden
	}

	if err := s.listingRepo.DeleteWithImages(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, model.ListingEventDeleted, listing)
	return nil
}

// ParsePrice coerces a form value to a non-negative integer; anything unparseable is 0 (negotiable).
func ParsePrice(raw string) int {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || value <= 0 {
		return 0
	}
	if value >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(value)
}

func (s *ListingService) saveImages(uploads []storage.Upload) ([]string, error) {
	urls := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		url, err := s.images.Save(upload)
		if err != nil {
			s.removeImages(context.Background(), urls)
			switch {
			case errors.Is(err, storage.ErrFileTooLarge):
				return nil, fmt.Errorf("%w: %s", ErrImageTooLarge, upload.Filename)
			case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrEmptyFile):
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, upload.Filename)
			default:
				return nil, err
			}
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *ListingService) removeImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.images.Remove(url); err != nil {
			slog.WarnContext(ctx, "remove upload failed", "url", url, "error", err)
		}
	}
}

func (s *ListingService) invalidate(ctx context.Context, ids ...uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		slog.WarnContext(ctx, "listing cache invalidate failed", "error", err)
	}
}

func (s *ListingService) publish(ctx context.Context, eventType string, listing *model.Listing) {
	if s.publisher == nil {
		return
	}
	event := model.ListingEvent{
		Type:       eventType,
		ListingID:  listing.ID,
		OwnerID:    listing.UserID,
		ImageURLs:  listing.ImageURLs(),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish listing event failed", "type", eventType, "listing_id", listing.ID, "error", err)
	}
}

func (in ListInput) isEmpty() bool {
	return strings.TrimSpace(in.Search) == "" &&
		strings.TrimSpace(in.Category) == "" &&
		in.MinPrice == nil &&
		in.MaxPrice == nil
}
