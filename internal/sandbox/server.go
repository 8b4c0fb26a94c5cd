package sandbox

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"mostrador/internal/apierror"
	"mostrador/internal/config"
	"mostrador/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const claimsKey = "claims"

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, max=50 work without panicking on the custom type.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// tokenClaims are the custom claims embedded in every sandbox access token,
// mirroring what the real backend issues.
type tokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Nombre   string `json:"nombre"`
	Rol      string `json:"rol"`
	jwt.RegisteredClaims
}

// New wires the sandbox routes and returns a configured Gin engine.
func New(cfg *config.Config, st *Store) *gin.Engine {
	if cfg.SandboxEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(requestLogger(), recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.POST("/auth/login", login(cfg, st))

	auth := v1.Group("", jwtAuth(cfg.JWTSecret))
	{
		auth.GET("/productos", listProductos(st))
		auth.GET("/productos/codigo/:codigo", productoPorCodigo(st))
		auth.GET("/productos/:id", productoPorID(st))
		auth.GET("/clientes", listClientes(st))
		auth.POST("/clientes", crearCliente(st))
		auth.POST("/ventas", registrarVenta(st))
		auth.GET("/alertas", listAlertas(st))
		auth.PUT("/alertas/:id/leida", marcarAlertaLeida(st))
		auth.DELETE("/alertas/:id", borrarAlerta(st))
	}

	return r
}

// ── Middleware ───────────────────────────────────────────────────────────────

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("sandbox request")
	}
}

func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("sandbox panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
			}
		}()
		c.Next()
	}
}

func jwtAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}
		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func getClaims(c *gin.Context) *tokenClaims {
	claims, _ := c.MustGet(claimsKey).(*tokenClaims)
	return claims
}

// bindAndValidate binds the JSON body and runs validator tags. Returns false
// after writing the error response; the caller must return immediately.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			return v
		}
	}
	return fallback
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func login(cfg *config.Config, st *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.LoginRequest
		if !bindAndValidate(c, &req) {
			return
		}
		user := st.findUsuario(req.Username)
		if user == nil {
			c.JSON(http.StatusUnauthorized, apierror.New("credenciales invalidas"))
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, apierror.New("credenciales invalidas"))
			return
		}

		expiry := time.Duration(cfg.JWTExpiryHours) * time.Hour
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
			UserID:   user.ID.String(),
			Username: user.Username,
			Nombre:   user.Nombre,
			Rol:      user.Rol,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
			},
		})
		signed, err := token.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
			return
		}
		c.JSON(http.StatusOK, model.LoginResponse{
			AccessToken: signed,
			TokenType:   "bearer",
			ExpiresIn:   int(expiry.Seconds()),
		})
	}
}

func listProductos(st *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := queryInt(c, "page", 0)
		limit := queryInt(c, "limit", 20)
		if limit < 1 {
			limit = 20
		}
		data, total := st.buscarProductos(c.Query("q"), c.Query("sort"), c.Query("dir"), page, limit)
		c.JSON(http.StatusOK, model.ProductoListResponse{Data: data, Total: total, Page: page, Limit: limit})
	}
}

func productoPorCodigo(st *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := st.productoPorCodigo(c.Param("codigo"))
		if p == nil {
			c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func productoPorID(st *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
			return
		}
		p := st.productoPorID(id)
		if p == nil {
			c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func listClientes(st *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := queryInt(c, "page", 0)
		limit := queryInt(c, "limit", 20)
		if limit < 1 {
			limit = 20
		}
		data, total := st.buscarClientes(c.Query("documento"), c.Query("q"), page, limit)
		c.JSON(http.StatusOK, model.ClienteListResponse{Data: data, Total: total, Page: page, Limit: limit})
	}
}

func crearCliente(st *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.CrearClienteRequest
		if !bindAndValidate(c, &req) {
			return
		}
		cliente, ok := st.crearCliente(req)
		if !ok {
			c.JSON(http.StatusConflict, apierror.New("ya existe un cliente con ese documento"))
			return
		}
		c.JSON(http.StatusCreated, cliente)
	}
}

func registrarVenta(st *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.RegistrarVentaRequest
		if !bindAndValidate(c, &req) {
			return
		}
		resp, err := st.registrarVenta(req)
		if err != nil {
			ve, ok := err.(*ventaError)
			if !ok {
				c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
				return
			}
			c.JSON(ve.status, apierror.New(ve.msg))
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func listAlertas(st *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, st.listAlertas())
	}
}

func marcarAlertaLeida(st *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
			return
		}
		var req model.MarcarLeidaRequest
		if !bindAndValidate(c, &req) {
			return
		}
		if !st.marcarAlertaLeida(id, getClaims(c).Nombre) {
			c.JSON(http.StatusNotFound, apierror.New("Alerta no encontrada"))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func borrarAlerta(st *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
			return
		}
		if !st.borrarAlerta(id) {
			c.JSON(http.StatusNotFound, apierror.New("Alerta no encontrada"))
			return
		}
		c.Status(http.StatusNoContent)
	}
}
