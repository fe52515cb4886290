package http

import (
	"github.com/valmatch-sync/internal/infrastructure/dynamo"
	s3infra "github.com/valmatch-sync/internal/infrastructure/s3"
	"github.com/valmatch-sync/internal/upstream"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	NotificationRepo *dynamo.NotificationSetRepo
	IconStore        *s3infra.IconStore
	Upstream         *upstream.Client
}
