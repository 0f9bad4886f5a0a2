package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/events"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/store"

	"github.com/google/logger"
)

// Auditor is the quality audit seam; *AuditGateway implements it.
type Auditor interface {
	Audit(ctx context.Context, req AuditRequest) AuditOutcome
}

// PhotoStorage stores donation photos and returns their public URL.
type PhotoStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type DonationService struct {
	Store   store.Store
	Auditor Auditor
	Photos  PhotoStorage // optional
	Events  events.Publisher
	Points  *PointsService // optional
	Now     func() time.Time

	// AuditTimeout bounds the audit call only; zero means the caller's deadline.
	AuditTimeout time.Duration
}

func NewDonationService(st store.Store, auditor Auditor, photos PhotoStorage, pub events.Publisher, points *PointsService) *DonationService {
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &DonationService{
		Store:   st,
		Auditor: auditor,
		Photos:  photos,
		Events:  pub,
		Points:  points,
		Now:     time.Now,
	}
}

// Submit audits the photos, applies the quality gate and stores the item on
// acceptance. A rejection returns *QualityRejectedError carrying the audit.
func (s *DonationService) Submit(ctx context.Context, sub Submission, images []AuditImage) (*models.DonationItem, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	auditCtx := ctx
	if s.AuditTimeout > 0 {
		var cancel context.CancelFunc
		auditCtx, cancel = context.WithTimeout(ctx, s.AuditTimeout)
		defer cancel()
	}
	outcome := s.Auditor.Audit(auditCtx, AuditRequest{
		Images:          images,
		Name:            sub.Name,
		Ingredients:     sub.Ingredients,
		PreparedAt:      sub.PreparedAt,
		StorageLocation: sub.StorageLocation,
		WeightGram:      sub.WeightGram,
		PackagingType:   sub.PackagingType,
	})
	if !outcome.OK() {
		logger.Warningf("[AUDIT] %s by %s: %v", sub.Name, sub.ProviderID, outcome.Err)
	}

	item, err := EvaluatePublication(outcome, sub)
	if err != nil {
		var rejected *QualityRejectedError
		if errors.As(err, &rejected) {
			logger.Infof("[AUDIT] ❌ rejected %q from %s: quality %.2f%%", sub.Name, sub.ProviderID, rejected.Audit.QualityPercentage)
			s.publish(ctx, events.New(events.DonationRejected, sub.ProviderID, sub.ProviderID, map[string]any{
				"name":              sub.Name,
				"quality":           rejected.Audit.QualityPercentage,
				"audit_unavailable": rejected.AuditUnavailable,
			}))
		}
		return nil, err
	}

	var uploaded []string
	if s.Photos != nil {
		for i, img := range images {
			key := path.Join("donations", item.ID, fmt.Sprintf("%d%s", i+1, extensionFor(img.MIMEType)))
			url, err := s.Photos.Put(ctx, key, img.Data, img.MIMEType)
			if err != nil {
				s.removePhotos(ctx, uploaded)
				return nil, fmt.Errorf("upload photo %d: %w", i+1, err)
			}
			uploaded = append(uploaded, key)
			item.PhotoURLs = append(item.PhotoURLs, url)
		}
	}

	if err := s.Store.CreateDonation(ctx, item); err != nil {
		s.removePhotos(ctx, uploaded)
		return nil, fmt.Errorf("store donation: %w", err)
	}
	logger.Infof("[AUDIT] ✅ published %q (%s) quality %.2f%%", item.Name, item.ID, item.Audit.Data().QualityPercentage)

	s.publish(ctx, events.New(events.DonationPublished, item.ID, item.ProviderID, map[string]any{
		"name":     item.Name,
		"quantity": item.InitialQuantity,
		"category": item.Audit.Data().DetectedCategory,
		"points":   item.Impact.Data().TotalPoints,
	}))
	s.Points.RefreshQuietly(ctx, item.ProviderID)
	return item, nil
}

// removePhotos deletes objects uploaded for a donation that was never stored.
func (s *DonationService) removePhotos(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.Photos.Delete(context.WithoutCancel(ctx), key); err != nil {
			logger.Errorf("[PHOTO] ❌ orphaned object %s: %v", key, err)
		}
	}
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	}
	return ".jpg"
}

func (s *DonationService) Get(ctx context.Context, id string) (*models.DonationItem, error) {
	return s.Store.GetDonation(ctx, id)
}

// ListAvailable returns what receivers may see and claim right now.
func (s *DonationService) ListAvailable(ctx context.Context, limit, offset int) ([]models.DonationItem, error) {
	now := s.Now()
	items, err := s.Store.ListDonations(ctx, models.DonationFilter{
		Statuses:    []models.DonationStatus{models.DonationStatusAvailable, models.DonationStatusClaimed},
		InStockOnly: true,
		VisibleAt:   now,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, err
	}
	visible := items[:0]
	for i := range items {
		if VisibleToReceivers(&items[i], now) {
			visible = append(visible, items[i])
		}
	}
	return visible, nil
}

// ListByProvider is the provider's own inventory in every status.
func (s *DonationService) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]models.DonationItem, error) {
	return s.Store.ListDonations(ctx, models.DonationFilter{ProviderID: providerID, Limit: limit, Offset: offset})
}

// Moderate blocks an item or holds it for review.
func (s *DonationService) Moderate(ctx context.Context, id string, to models.DonationStatus, adminID string) (*models.DonationItem, error) {
	var from models.DonationStatus
	item, err := s.Store.UpdateDonation(ctx, id, func(item *models.DonationItem) error {
		from = item.Status
		return ModerateDonation(item, to)
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("[ADMIN] donation %s %s → %s by %s", id, from, to, adminID)
	s.publish(ctx, events.New(events.DonationStatusChanged, id, adminID, map[string]any{
		"from": string(from),
		"to":   string(to),
	}))
	s.Points.RefreshQuietly(ctx, item.ProviderID)
	return item, nil
}

// DonationContact is how a receiver reaches the provider and the food.
type DonationContact struct {
	Provider    ContactLink `json:"provider"`
	WhatsAppURL string      `json:"whatsapp_url,omitempty"`
	MapURL      string      `json:"map_url"`
}

func (s *DonationService) Contact(ctx context.Context, id string) (*DonationContact, error) {
	item, err := s.Store.GetDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	link := ContactLink{Message: fmt.Sprintf("Halo, saya tertarik dengan donasi \"%s\".", item.Name)}
	if a, err := s.Store.GetActor(ctx, item.ProviderID); err == nil {
		link.Phone = a.Phone
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return &DonationContact{
		Provider:    link,
		WhatsAppURL: link.URL(),
		MapURL:      MapSearchURL(Coordinates{Lat: item.Latitude, Lng: item.Longitude}),
	}, nil
}

func (s *DonationService) publish(ctx context.Context, e events.Event) {
	if err := s.Events.Publish(ctx, e); err != nil {
		logger.Warningf("[EVENT] publish %s for %s failed: %v", e.Type, e.Key, err)
	}
}
