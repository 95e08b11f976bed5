package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/config"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/update-email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
			r.Get("/assignments", h.GetMyAssignments)
			r.Get("/leaves", h.GetMyLeaves)
			r.Get("/fairness-profile", h.GetMyFairnessProfile)
		})

		r.Route("/staffs", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateStaff)
			r.Get("/", h.GetAllStaffInfo) // 同科室职工需要查看彼此的排班，这里不再细分权限
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.staffInfo)
				r.Get("/", h.GetStaffInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateStaff)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteStaff)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateStaffPassword)
			})
		})

		r.Route("/doctor-rosters", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleScheduler, domain.RoleAdmin})).Put("/", h.UpsertDoctorRosters)
			r.Get("/", h.GetDoctorRosters)
		})

		r.Route("/staffing-requirements", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleScheduler, domain.RoleAdmin})).Post("/", h.CreateStaffingRequirement)
			r.Get("/", h.GetStaffingRequirements)
			r.With(h.RequiredRole([]domain.Role{domain.RoleScheduler, domain.RoleAdmin})).Delete("/{id}", h.DeleteStaffingRequirement)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateHoliday)
			r.Get("/", h.GetHolidays)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/{id}", h.DeleteHoliday)
		})

		r.Route("/schedule-batches", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleScheduler, domain.RoleAdmin})).Post("/", h.CreateScheduleBatch)
			r.Get("/", h.GetAllScheduleBatches)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.scheduleBatch)
				r.Get("/", h.GetScheduleBatch)
				r.Get("/assignments", h.GetBatchAssignments)
				r.With(h.RequiredRole([]domain.Role{domain.RoleScheduler, domain.RoleAdmin})).Post("/run", h.RunScheduleBatch)
				r.With(h.RequiredRole([]domain.Role{domain.RoleScheduler, domain.RoleAdmin})).Post("/deploy", h.DeployScheduleBatch)
			})
		})

		r.Route("/leaves", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.myInfo)
				r.Use(h.preventInactiveStaff)
				r.Post("/", h.SubmitLeaveApplication)
				r.Post("/eligibility", h.CheckLeaveEligibility)
			})
			r.With(h.RequiredRole([]domain.Role{domain.RoleScheduler, domain.RoleAdmin})).Get("/pending", h.GetPendingLeaveApplications)
			r.With(h.RequiredRole([]domain.Role{domain.RoleScheduler, domain.RoleAdmin})).Post("/bulk-review", h.BulkReviewLeaveApplications)
		})
	})
}
