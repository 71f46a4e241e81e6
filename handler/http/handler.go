package http

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"rpabridge/src/core/jobflow"
	"rpabridge/src/infrastructure/orchestrator"
	"rpabridge/src/log"
)

type Handler struct {
	availability jobflow.Runner
	booking      jobflow.Runner
}

func NewHandler(availability, booking jobflow.Runner) *Handler {
	return &Handler{
		availability: availability,
		booking:      booking,
	}
}

// NewRouter builds the gin engine with middleware and routes mounted.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), CORS())
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all service routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.CheckHealth)
	r.POST("/check-availability", h.CheckAvailability)
	r.POST("/book-appointment", h.BookAppointment)
}

func (h *Handler) CheckHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func init() {
	// Report validation failures by json field name, not Go field name.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func missingFields(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return strings.Join(fields, ", ")
	}
	return err.Error()
}

// errKind classifies a pipeline failure for logging. Every kind maps to
// a 500; the taxonomy exists so operators can tell an upstream auth
// problem from an exhausted poll budget.
func errKind(err error) string {
	var (
		authErr      *orchestrator.AuthError
		launchErr    *orchestrator.LaunchError
		timeoutErr   *jobflow.PollTimeoutError
		failedErr    *jobflow.JobFailedError
		missingErr   *jobflow.MissingOutputError
		malformedErr *jobflow.MalformedOutputError
	)
	switch {
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &launchErr):
		return "launch"
	case errors.As(err, &timeoutErr):
		return "poll_timeout"
	case errors.As(err, &failedErr):
		return "job_failed"
	case errors.As(err, &missingErr):
		return "missing_output"
	case errors.As(err, &malformedErr):
		return "malformed_output"
	default:
		return "internal"
	}
}

func (h *Handler) fail(c *gin.Context, err error, body gin.H) {
	log.Error(err, "request failed",
		"path", c.FullPath(),
		"kind", errKind(err),
		"requestID", c.GetString(ctxRequestID),
	)
	body["error"] = err.Error()
	c.JSON(http.StatusInternalServerError, body)
}

// pickFields projects only the declared fields of the job payload into
// the response, dropping anything else the automation happened to emit.
func pickFields(raw []byte, fields ...string) gin.H {
	out := gin.H{}
	for _, f := range fields {
		if v := gjson.GetBytes(raw, f); v.Exists() {
			out[f] = v.Value()
		}
	}
	return out
}
