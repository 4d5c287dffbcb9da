// ===============================
// FILE: internal/handlers/api/v1/posts/posts_controller.go
// ===============================

package posts

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"didaur/internal/contextutils"
	"didaur/internal/response"
	"didaur/internal/services"

	"go.uber.org/zap"
)

// PostController handles community feed API endpoints
type PostController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewPostController creates a new community feed controller
func NewPostController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *PostController {
	return &PostController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// ===============================
// FEED ENDPOINTS
// ===============================

// ListPosts returns the feed newest-first - GET /api/v1/posts
func (c *PostController) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	posts, err := c.serviceCollection.CommunityService.Posts(ctx)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, posts)
}

// CreatePost publishes a creation to the feed - POST /api/v1/posts
func (c *PostController) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logger := c.endpointLogger(r, "create_post")

	email := contextutils.GetEmail(r.Context())
	if email == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("authentication required"))
		return
	}

	var req services.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Invalid request body", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid request body", err))
		return
	}

	result, err := c.serviceCollection.CommunityService.Publish(ctx, email, &req)
	if err != nil {
		logger.Warn("Post creation failed", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	logger.Info("Post published",
		zap.String("post_id", result.Post.ID),
		zap.Bool("for_sale", result.Post.IsForSale),
	)

	c.responseBuilder.WriteCreated(w, r, result)
}

// LikePost increments a post's like counter - POST /api/v1/posts/{id}/like
func (c *PostController) LikePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	postID := extractIDFromPath(r.URL.Path, 3)
	if postID == "" {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid post ID", nil))
		return
	}

	post, err := c.serviceCollection.CommunityService.Like(ctx, postID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, post)
}

// ===============================
// COMMENT ENDPOINTS
// ===============================

// GetComments lists a post's comments oldest-first - GET /api/v1/posts/{id}/comments
func (c *PostController) GetComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	postID := extractIDFromPath(r.URL.Path, 3)
	if postID == "" {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid post ID", nil))
		return
	}

	comments, err := c.serviceCollection.CommunityService.CommentsFor(ctx, postID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, comments)
}

// CreateComment adds a comment to a post - POST /api/v1/posts/{id}/comments
func (c *PostController) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logger := c.endpointLogger(r, "create_comment")

	email := contextutils.GetEmail(r.Context())
	if email == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("authentication required"))
		return
	}

	postID := extractIDFromPath(r.URL.Path, 3)
	if postID == "" {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid post ID", nil))
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logger.Warn("Invalid request body", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Invalid request body", err))
		return
	}

	result, err := c.serviceCollection.CommunityService.Comment(ctx, email, &services.CommentRequest{
		PostID: postID,
		Text:   body.Text,
	})
	if err != nil {
		logger.Warn("Comment creation failed", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	logger.Info("Comment created", zap.String("post_id", postID))

	c.responseBuilder.WriteCreated(w, r, result)
}

// ===============================
// HELPERS
// ===============================

func (c *PostController) endpointLogger(r *http.Request, endpoint string) *zap.Logger {
	return c.logger.With(
		zap.String("request_id", contextutils.GetRequestID(r.Context())),
		zap.String("endpoint", endpoint),
	)
}

// extractIDFromPath extracts a path segment at the given position,
// e.g. position 3 of /api/v1/posts/p1/like yields "p1"
func extractIDFromPath(path string, position int) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if position >= len(parts) {
		return ""
	}
	return parts[position]
}
