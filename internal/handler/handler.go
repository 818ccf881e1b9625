package handler

import (
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"travelplanner/internal/service"
)

// Handler структурирует зависимости сервисов для обработки HTTP-запросов.
type Handler struct {
	AuthService   *service.AuthService
	UserService   *service.UserService
	PlanService   *service.PlanService
	ResetService  *service.PasswordResetService
	SearchService *service.SearchService
	logger        *log.Logger
}

// NewHandler создает новый Handler с внедрением зависимостей (сервисов).
func NewHandler(as *service.AuthService, us *service.UserService, ps *service.PlanService,
	rs *service.PasswordResetService, ss *service.SearchService, logger *log.Logger) *Handler {
	registerJSONTagNames()
	return &Handler{
		AuthService:   as,
		UserService:   us,
		PlanService:   ps,
		ResetService:  rs,
		SearchService: ss,
		logger:        logger,
	}
}

// Router собирает gin.Engine со всеми маршрутами API.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.logger))
	h.Routes(router)
	return router
}

// Routes регистрирует маршруты на переданном роутере.
func (h *Handler) Routes(router gin.IRouter) {
	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		api.GET("/test/", h.Test)

		api.POST("/register/", h.Register)
		api.POST("/login/", h.Login)
		api.POST("/token/refresh/", h.RefreshToken)

		api.POST("/forgot-password/", h.ForgotPassword)
		api.POST("/otp-verify/", h.VerifyOTP)
		api.POST("/reset-password/", h.ResetPassword)

		api.GET("/search/", h.Search)

		authed := api.Group("/", h.RequireAuth())
		{
			authed.POST("/logout/", h.Logout)

			authed.GET("/profile/", h.GetProfile)
			authed.POST("/profile/", h.UpdateProfile)
			authed.PUT("/profile/", h.UpdateProfile)
			authed.PATCH("/profile/", h.UpdateProfile)
			authed.POST("/change-password/", h.ChangePassword)

			authed.GET("/plans/", h.ListPlans)
			authed.POST("/plans/", h.CreatePlan)
			authed.GET("/plans/:id/", h.GetPlan)
			authed.PUT("/plans/:id/", h.ReplacePlan)
			authed.PATCH("/plans/:id/", h.PatchPlan)
			authed.DELETE("/plans/:id/", h.DeletePlan)
		}
	}
}

// Health обработчик для GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "search_index": h.SearchService.Available()})
}

// Test обработчик для GET /api/test/ - проверка доступности API.
func (h *Handler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "API is working!", "status": "success"})
}

var tagNamesOnce sync.Once

// registerJSONTagNames заставляет валидатор называть поля по json-тегам.
func registerJSONTagNames() {
	tagNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
