// Package app wires the HTTP surface together
package app

import (
	"fmt"
	"strings"
	"time"

	"blogapi/app/auth"
	"blogapi/app/file"
	"blogapi/app/post"
	"blogapi/app/root"
	"blogapi/app/user"
	"blogapi/db"
	"blogapi/internal"
	"blogapi/internal/cache"
	"blogapi/internal/service"
	"blogapi/internal/storage"
	"blogapi/internal/store"
	"blogapi/pkg/middleware"
	"blogapi/pkg/security"

	gincache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var cacheStore = persist.NewMemoryStore(time.Minute)

func NewRouter() (*gin.Engine, error) {
	makeLogger()

	d := &internal.Deps{}

	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = conn

	rdb, err := cache.NewRedis()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis, %w", err)
	}

	tokens, err := security.NewTokenIssuer(viper.GetString("jwt.secret"))
	if err != nil {
		return nil, err
	}

	d.Argon = security.NewArgon()
	d.Reset = service.NewPasswordReset(
		cache.NewCodeStore(rdb),
		store.NewUsers(conn),
		tokens,
		service.NewMailer(),
		d.Argon,
	)

	st, err := storage.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage, %w", err)
	}
	d.Storage = st

	router := gin.New()

	origins := strings.Split(viper.GetString("host.cors"), ",")

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	jwt := middleware.NewJWTMiddleware(conn)
	maxUploadSize := viper.GetInt64("upload.max_size")
	rateLimit := viper.GetInt("security.rate_limit")

	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
		CleanupInterval:   time.Minute,
	})

	main := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", root.Heartbeat)
	}

	a := main.Group("/auth", middleware.BodySizeLimiter(1<<20))
	{
		// GET /api/auth/validate	-> Validates the access token cookie
		a.GET("/validate", jwt, root.Validate)

		// POST /api/auth/login 	-> Logs in a user and sets the access token cookie
		a.POST("/login", func(c *gin.Context) { auth.Login(c, d) })

		// POST /api/auth/logout	-> Clears the access token cookie
		a.POST("/logout", auth.Logout)

		// POST /api/auth/password/reset-code	-> Emails a verification code
		a.POST("/password/reset-code", func(c *gin.Context) { auth.RequestResetCode(c, d) })

		// POST /api/auth/password/verify-code	-> Checks the emailed code
		a.POST("/password/verify-code", func(c *gin.Context) { auth.VerifyResetCode(c, d) })

		// POST /api/auth/password/reset	-> Sets the new password
		a.POST("/password/reset", func(c *gin.Context) { auth.ResetPassword(c, d) })
	}

	u := main.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// GET /api/users		-> Lists users with skip/limit paging
		u.GET("", func(c *gin.Context) { user.List(c, d) })

		// GET /api/users/:id		-> Returns a single user
		u.GET("/:id", func(c *gin.Context) { user.Fetch(c, d) })

		// POST /api/users 		-> Registers a new user
		u.POST("", func(c *gin.Context) { user.Register(c, d) })

		// PUT /api/users/:id 		-> Updates a user
		u.PUT("/:id", jwt, func(c *gin.Context) { user.Update(c, d) })

		// DELETE /api/users/:id 	-> Deletes a user and their posts
		u.DELETE("/:id", jwt, func(c *gin.Context) { user.Delete(c, d) })
	}

	p := main.Group("/posts", middleware.BodySizeLimiter(1<<20))
	{
		// GET /api/posts		-> Lists posts with skip/limit paging
		p.GET("", cacheFor(30), func(c *gin.Context) { post.List(c, d) })

		// POST /api/posts/:userID	-> Creates a post for a user
		p.POST("/:userID", jwt, func(c *gin.Context) { post.Create(c, d) })

		// PUT /api/posts/:id		-> Updates a post
		p.PUT("/:id", jwt, func(c *gin.Context) { post.Update(c, d) })

		// DELETE /api/posts/:id	-> Deletes a post
		p.DELETE("/:id", jwt, func(c *gin.Context) { post.Delete(c, d) })
	}

	f := main.Group("/files", jwt)
	{
		// POST /api/files/upload	-> Uploads a new file
		f.POST("/upload", middleware.BodySizeLimiter(maxUploadSize), func(c *gin.Context) { file.Upload(c, d) })

		// GET /api/files/download	-> Downloads one file or a zip of several
		f.GET("/download", func(c *gin.Context) { file.Download(c, d) })

		// GET /api/files/list		-> Lists stored files sorted by name
		f.GET("/list", func(c *gin.Context) { file.List(c, d) })
	}

	return router, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return gincache.CacheByRequestURI(cacheStore, time.Second*time.Duration(sec))
}
