package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory lazily builds the repository set for one database handle.
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns the repositories, creating them on first use
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetSubscriptionRepository returns the subscription repository instance
func (f *Factory) GetSubscriptionRepository() SubscriptionRepository {
	return f.GetRepositories().Subscription
}

// GetOrderRepository returns the order repository instance
func (f *Factory) GetOrderRepository() OrderRepository {
	return f.GetRepositories().Order
}

// GetConsultationRepository returns the consultation repository instance
func (f *Factory) GetConsultationRepository() ConsultationRepository {
	return f.GetRepositories().Consultation
}

// GetProductAccessRepository returns the product access repository instance
func (f *Factory) GetProductAccessRepository() ProductAccessRepository {
	return f.GetRepositories().ProductAccess
}

// GetWebhookEventRepository returns the webhook ledger repository instance
func (f *Factory) GetWebhookEventRepository() WebhookEventRepository {
	return f.GetRepositories().WebhookEvent
}
