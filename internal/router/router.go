// Package router wires the HTTP endpoints of the blog API: account signup and
// login, post creation, cached post listing, owner-scoped post deletion, a
// storage health check, and a trusted-subnet-guarded internal stats endpoint.
package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/miniblog/internal/auth"
	"github.com/patric-chuzhbe/miniblog/internal/authenticator"
	"github.com/patric-chuzhbe/miniblog/internal/gzippedhttp"
	"github.com/patric-chuzhbe/miniblog/internal/ipchecker"
	"github.com/patric-chuzhbe/miniblog/internal/logger"
	"github.com/patric-chuzhbe/miniblog/internal/models"
	"github.com/patric-chuzhbe/miniblog/internal/service"
)

// maxRequestBodyBytes bounds request bodies. It leaves headroom above the
// 1 MiB post text limit for JSON quoting and escape sequences.
const maxRequestBodyBytes = 10 * 1024 * 1024

type tokenIssuer interface {
	BuildJWTString(userID int) (string, error)
}

// Router holds the handler dependencies: the service layer, the token
// issuer, and the request validator.
type Router struct {
	svc         *service.Service
	tokenIssuer tokenIssuer
	ipChecker   *ipchecker.IPChecker
	validate    *validator.Validate
}

// New assembles the chi mux with logging and gzip middleware, public
// credential endpoints, and the token-protected post endpoints.
func New(
	svc *service.Service,
	tokenIssuer tokenIssuer,
	authn authenticator.Authenticator,
	ipChecker *ipchecker.IPChecker,
) *chi.Mux {
	theRouter := &Router{
		svc:         svc,
		tokenIssuer: tokenIssuer,
		ipChecker:   ipChecker,
		validate:    validator.New(),
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(gzippedhttp.WithGzipHTTPMiddleware)

	router.Post(`/signup`, theRouter.PostSignup)
	router.Post(`/login`, theRouter.PostLogin)
	router.Get(`/ping`, theRouter.GetPing)
	router.Get(`/api/internal/stats`, theRouter.GetApiInternalStats)

	router.Group(func(protected chi.Router) {
		protected.Use(authn.AuthenticateUser)
		protected.Post(`/addpost`, theRouter.PostAddpost)
		protected.Get(`/getposts`, theRouter.GetGetposts)
		protected.Delete(`/deletepost`, theRouter.DeleteDeletepost)
	})

	return router
}

// PostSignup creates a new account from email and password and responds with
// a bearer token. A taken email responds 400.
func (theRouter *Router) PostSignup(response http.ResponseWriter, request *http.Request) {
	var signupRequest models.SignupRequest
	if !theRouter.decodeAndValidate(response, request, &signupRequest) {
		return
	}

	usr, err := theRouter.svc.SignUp(request.Context(), signupRequest.Email, signupRequest.Password)
	if errors.Is(err, models.ErrEmailAlreadyRegistered) {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `theRouter.svc.SignUp()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	theRouter.respondWithToken(response, usr.ID)
}

// PostLogin authenticates an account and responds with a bearer token.
// Every credential failure responds with the same generic 401.
func (theRouter *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	var loginRequest models.LoginRequest
	if !theRouter.decodeAndValidate(response, request, &loginRequest) {
		return
	}

	usr, err := theRouter.svc.Login(request.Context(), loginRequest.Email, loginRequest.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		http.Error(response, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `theRouter.svc.Login()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	theRouter.respondWithToken(response, usr.ID)
}

// PostAddpost stores a new post owned by the authenticated user and responds
// with the created post.
func (theRouter *Router) PostAddpost(response http.ResponseWriter, request *http.Request) {
	userID, ok := getAuthenticatedUserID(request)
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	var addPostRequest models.AddPostRequest
	if !theRouter.decodeAndValidate(response, request, &addPostRequest) {
		return
	}

	post, err := theRouter.svc.AddPost(request.Context(), userID, addPostRequest.Text)
	if errors.Is(err, models.ErrPostTextEmpty) || errors.Is(err, models.ErrPostTextTooLarge) {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `theRouter.svc.AddPost()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, models.PostResponse{
		PostID: post.ID,
		Text:   post.Text,
	})
}

// GetGetposts responds with all posts of the authenticated user, served
// through the read-through cache.
func (theRouter *Router) GetGetposts(response http.ResponseWriter, request *http.Request) {
	userID, ok := getAuthenticatedUserID(request)
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	posts, err := theRouter.svc.GetPosts(request.Context(), userID)
	if err != nil {
		logger.Log.Debugln("Error calling the `theRouter.svc.GetPosts()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	postResponses := funk.Map(posts, func(post models.Post) models.PostResponse {
		return models.PostResponse{
			PostID: post.ID,
			Text:   post.Text,
		}
	}).([]models.PostResponse)

	writeJSON(response, http.StatusOK, postResponses)
}

// DeleteDeletepost deletes the post given by the post_id query parameter when
// it is owned by the authenticated user. An absent or foreign post responds
// 404 without revealing which case occurred.
func (theRouter *Router) DeleteDeletepost(response http.ResponseWriter, request *http.Request) {
	userID, ok := getAuthenticatedUserID(request)
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	postID, err := strconv.Atoi(request.URL.Query().Get("post_id"))
	if err != nil {
		http.Error(response, "the `post_id` query parameter must be an integer", http.StatusBadRequest)
		return
	}

	err = theRouter.svc.DeletePost(request.Context(), userID, postID)
	if errors.Is(err, models.ErrPostNotFound) {
		http.Error(response, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `theRouter.svc.DeletePost()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetPing responds 200 when the storage is reachable.
func (theRouter *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := theRouter.svc.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `theRouter.svc.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetApiInternalStats responds with the users and posts totals. The endpoint
// is available only from the configured trusted subnet.
func (theRouter *Router) GetApiInternalStats(response http.ResponseWriter, request *http.Request) {
	if theRouter.ipChecker.IsTrustedSubnetEmpty() {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	clientIP, err := theRouter.ipChecker.GetClientIP(request)
	if err != nil || !theRouter.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	stats, err := theRouter.svc.GetInternalStats(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `theRouter.svc.GetInternalStats()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}

func (theRouter *Router) respondWithToken(response http.ResponseWriter, userID int) {
	JWTString, err := theRouter.tokenIssuer.BuildJWTString(userID)
	if err != nil {
		logger.Log.Debugln("Error calling the `theRouter.tokenIssuer.BuildJWTString()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, models.TokenResponse{Token: JWTString})
}

func (theRouter *Router) decodeAndValidate(
	response http.ResponseWriter,
	request *http.Request,
	target interface{},
) bool {
	request.Body = http.MaxBytesReader(response, request.Body, maxRequestBodyBytes)

	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		http.Error(response, "cannot decode the request JSON body", http.StatusBadRequest)
		return false
	}

	if err := theRouter.validate.Struct(target); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

func getAuthenticatedUserID(request *http.Request) (int, bool) {
	userID, ok := request.Context().Value(auth.UserIDKey).(int)

	return userID, ok && userID != 0
}

func writeJSON(response http.ResponseWriter, statusCode int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)

	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error encoding the response JSON body: ", zap.Error(err))
	}
}
