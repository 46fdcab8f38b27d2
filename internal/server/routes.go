package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/gosuda/trellis/internal/api/v1"
)

func registerAuthRoutes(api huma.API, authSvc v1.AuthService) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store v1.DataStore) {
	v1.RegisterUserRoutes(api, store)
	v1.RegisterBoardRoutes(api, store)
	v1.RegisterColumnRoutes(api, store)
	v1.RegisterTaskRoutes(api, store)
}
