package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appdir "github.com/mozillians/backend/internal/application/directory"
	"github.com/mozillians/backend/internal/interfaces/http/handler"
)

// API bundles the handlers of the directory API and the middleware each
// version runs before them.
type API struct {
	Profiles *handler.ProfileHandler
	Groups   *handler.GroupHandler
	Skills   *handler.SkillHandler
	System   *handler.SystemHandler
	Metrics  http.Handler

	V1Middleware []gin.HandlerFunc
	V2Middleware []gin.HandlerFunc
}

// Register mounts the system endpoints and both API versions on engine
func (a API) Register(engine *gin.Engine) {
	engine.GET("/health", a.System.Health)
	engine.GET("/system/info", a.System.GetSystemInfo)
	if a.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(a.Metrics))
	}

	NewVersion(appdir.APIv1, a.V1Middleware...).Add(
		NewResource("/users").
			GET("/", a.Profiles.ListV1).
			GET("/:id/", a.Profiles.GetV1),
		NewResource("/groups").GET("/", a.Groups.ListV1),
		NewResource("/skills").GET("/", a.Skills.ListSkillsV1),
	).Mount(engine)

	NewVersion(appdir.APIv2, a.V2Middleware...).Add(
		NewResource("/users").
			GET("/", a.Profiles.ListV2).
			GET("/:id/", a.Profiles.GetV2),
		NewResource("/lookup-user").GET("/", a.Profiles.Lookup),
		NewResource("/groups").
			GET("/", a.Groups.ListV2).
			GET("/:id/", a.Groups.GetV2),
		NewResource("/skills").GET("/", a.Skills.ListSkillsV2),
		NewResource("/languages").GET("/", a.Skills.ListLanguages),
	).Mount(engine)
}
