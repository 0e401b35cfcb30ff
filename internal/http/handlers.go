package httpx

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"blog/internal/app"
	"blog/internal/auth"
	"blog/internal/cache"
	"blog/internal/feed"
	"blog/internal/forms"
	"blog/internal/models"
	"blog/internal/repo"
	"blog/internal/util"
)

// The whole rendered global feed is cached under this one key, whatever the
// page parameter says. Coarse on purpose; it expires or is cleared, never
// invalidated by writes.
const indexCacheKey = "index_page"

type Server struct {
	DB    *sql.DB
	Cfg   app.Config
	Cache cache.Cache
	Mux   *http.ServeMux

	users    repo.Users
	groups   repo.Groups
	posts    repo.Posts
	comments repo.Comments
	follows  repo.Follows
	feeds    *feed.Service
}

func NewServer(db *sql.DB, c cache.Cache, cfg app.Config) *Server {
	s := &Server{
		DB:       db,
		Cfg:      cfg,
		Cache:    c,
		Mux:      http.NewServeMux(),
		users:    repo.Users{DB: db},
		groups:   repo.Groups{DB: db},
		posts:    repo.Posts{DB: db},
		comments: repo.Comments{DB: db},
		follows:  repo.Follows{DB: db},
		feeds:    &feed.Service{DB: db},
	}

	s.Mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	s.Mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir))))

	// routes
	s.handle("GET /{$}", s.handleIndex)
	s.handle("GET /group/{slug}/{$}", s.handleGroup)
	s.handle("GET /profile/{username}/{$}", s.handleProfile)
	s.handle("GET /posts/{id}/{$}", s.handlePostDetail)
	s.handleAuthed("/create/{$}", s.handlePostCreate)
	s.handleAuthed("/posts/{id}/edit/{$}", s.handlePostEdit)
	s.handleAuthed("/posts/{id}/comment/{$}", s.handleAddComment)
	s.handleAuthed("GET /follow/{$}", s.handleFollowIndex)
	s.handleAuthed("/profile/{username}/follow/{$}", s.handleProfileFollow)
	s.handleAuthed("/profile/{username}/unfollow/{$}", s.handleProfileUnfollow)
	s.handle("/login", s.handleLogin)
	s.handle("/logout", s.handleLogout)
	s.handle("/signup", s.handleSignup)

	return s
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.Mux.Handle(pattern, s.withSession(h))
}

func (s *Server) handleAuthed(pattern string, h http.HandlerFunc) {
	s.Mux.Handle(pattern, s.withSession(s.requireLogin(h)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.Mux.ServeHTTP(w, r) }

type pageData struct {
	Title    string
	UserID   int64
	Username string

	Page          feed.Page
	Group         models.Group
	Author        models.User
	Following     bool
	FollowerCount int
	Post          models.Post
	Comments      []models.Comment
	Groups        []models.Group

	Form   forms.PostForm
	Errors forms.FieldErrors
	IsEdit bool
	Next   string
	Flash  string
}

func (s *Server) newPageData(ctx context.Context, title string) pageData {
	data := pageData{Title: title}
	if uid, ok := auth.UserIDFrom(ctx); ok {
		data.UserID = uid
		if u, err := s.users.FindByID(ctx, uid); err == nil {
			data.Username = u.Username
		}
	}
	return data
}

func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return n
}

// ------------------------------------------------------------------
// Feeds
// ------------------------------------------------------------------

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if b, ok := s.Cache.Get(ctx, indexCacheKey); ok {
		util.WriteHTML(w, b)
		return
	}

	posts, err := s.feeds.Global(ctx)
	if err != nil {
		s.serverError(w, "global feed", err)
		return
	}

	data := s.newPageData(ctx, "Latest posts")
	data.Page = feed.Paginate(posts, pageParam(r), s.Cfg.PostsPerPage)

	b, err := util.RenderBytes("index.html", data)
	if err != nil {
		s.serverError(w, "render index", err)
		return
	}
	s.Cache.Put(ctx, indexCacheKey, b, s.Cfg.CacheTTL)
	util.WriteHTML(w, b)
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	group, err := s.groups.FindBySlug(ctx, r.PathValue("slug"))
	if errors.Is(err, repo.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, "find group", err)
		return
	}

	posts, err := s.feeds.ByGroup(ctx, group.ID)
	if err != nil {
		s.serverError(w, "group feed", err)
		return
	}

	data := s.newPageData(ctx, group.Title)
	data.Group = group
	data.Page = feed.Paginate(posts, pageParam(r), s.Cfg.PostsPerPage)
	util.Render(w, "group_list.html", data)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	author, err := s.users.FindByUsername(ctx, r.PathValue("username"))
	if errors.Is(err, repo.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, "find author", err)
		return
	}

	posts, err := s.feeds.ByAuthor(ctx, author.ID)
	if err != nil {
		s.serverError(w, "author feed", err)
		return
	}

	data := s.newPageData(ctx, author.Username)
	data.Author = author
	data.Page = feed.Paginate(posts, pageParam(r), s.Cfg.PostsPerPage)
	if uid, ok := auth.UserIDFrom(ctx); ok {
		if following, err := s.follows.Exists(ctx, uid, author.ID); err == nil {
			data.Following = following
		}
	}
	if n, err := s.follows.CountFollowers(ctx, author.ID); err == nil {
		data.FollowerCount = n
	}
	util.Render(w, "profile.html", data)
}

func (s *Server) handleFollowIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, _ := auth.UserIDFrom(ctx)

	posts, err := s.feeds.Following(ctx, uid)
	if err != nil {
		s.serverError(w, "following feed", err)
		return
	}

	data := s.newPageData(ctx, "Following")
	data.Page = feed.Paginate(posts, pageParam(r), s.Cfg.PostsPerPage)
	util.Render(w, "follow.html", data)
}

// ------------------------------------------------------------------
// Posts
// ------------------------------------------------------------------

func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, ok := s.findPost(w, r)
	if !ok {
		return
	}

	comments, err := s.comments.ByPost(ctx, post.ID)
	if err != nil {
		s.serverError(w, "load comments", err)
		return
	}

	data := s.newPageData(ctx, "Post by "+post.Author)
	data.Post = post
	data.Comments = comments
	util.Render(w, "post_detail.html", data)
}

func (s *Server) handlePostCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, _ := auth.UserIDFrom(ctx)

	if r.Method == http.MethodGet {
		s.renderPostForm(ctx, w, forms.PostForm{}, nil, models.Post{}, false)
		return
	}

	f, errs := s.parsePostForm(ctx, r)
	if errs.Any() {
		s.renderPostForm(ctx, w, f, errs, models.Post{}, false)
		return
	}

	post := models.Post{
		AuthorID: uid,
		GroupID:  f.GroupID,
		Text:     f.Text,
		Image:    f.Image,
	}
	if err := s.posts.Insert(ctx, &post); err != nil {
		s.serverError(w, "insert post", err)
		return
	}

	author, err := s.users.FindByID(ctx, uid)
	if err != nil {
		s.serverError(w, "find author", err)
		return
	}
	http.Redirect(w, r, "/profile/"+url.PathEscape(author.Username)+"/", http.StatusSeeOther)
}

func (s *Server) handlePostEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, _ := auth.UserIDFrom(ctx)

	post, ok := s.findPost(w, r)
	if !ok {
		return
	}

	detail := "/posts/" + strconv.FormatInt(post.ID, 10) + "/"
	if post.AuthorID != uid {
		// Not the author: silently refused, never an error page.
		http.Redirect(w, r, detail, http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		f := forms.PostForm{Text: post.Text, GroupID: post.GroupID}
		s.renderPostForm(ctx, w, f, nil, post, true)
		return
	}

	f, errs := s.parsePostForm(ctx, r)
	if errs.Any() {
		s.renderPostForm(ctx, w, f, errs, post, true)
		return
	}
	if f.Image == "" {
		f.Image = post.Image
	}

	// Author and creation timestamp stay as they are, whatever was submitted.
	if err := s.posts.Update(ctx, post.ID, f.Text, f.GroupID, f.Image); err != nil {
		s.serverError(w, "update post", err)
		return
	}
	http.Redirect(w, r, detail, http.StatusSeeOther)
}

// parsePostForm validates text/group and stores the uploaded image, if any.
func (s *Server) parsePostForm(ctx context.Context, r *http.Request) (forms.PostForm, forms.FieldErrors) {
	f, errs := forms.ParsePost(r.FormValue("text"), r.FormValue("group"))
	if errs == nil {
		errs = forms.FieldErrors{}
	}
	if f.GroupID != 0 {
		if _, err := s.groups.FindByID(ctx, f.GroupID); errors.Is(err, repo.ErrNotFound) {
			errs["group"] = "Unknown group"
		} else if err != nil {
			errs["group"] = "Unknown group"
		}
	}
	// A rejected submission must not leave an orphan file in the media dir.
	if errs.Any() {
		return f, errs
	}
	image, err := s.saveUpload(r)
	if err != nil {
		log.Printf("save upload: %v", err)
		errs["image"] = "Could not store the image"
		return f, errs
	}
	f.Image = image
	return f, nil
}

func (s *Server) renderPostForm(ctx context.Context, w http.ResponseWriter, f forms.PostForm, errs forms.FieldErrors, post models.Post, isEdit bool) {
	groups, err := s.groups.All(ctx)
	if err != nil {
		s.serverError(w, "load groups", err)
		return
	}

	title := "New post"
	if isEdit {
		title = "Edit post"
	}
	data := s.newPageData(ctx, title)
	data.Groups = groups
	data.Form = f
	data.Errors = errs
	data.Post = post
	data.IsEdit = isEdit
	util.Render(w, "create_post.html", data)
}

// saveUpload stores the "image" part under the media dir with a uuid name
// and returns its public path. No file submitted is not an error.
func (s *Server) saveUpload(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	if header.Filename == "" {
		return "", nil
	}
	if err := os.MkdirAll(s.Cfg.MediaDir, 0o755); err != nil {
		return "", err
	}

	name := uuid.New().String() + filepath.Ext(header.Filename)
	dst, err := os.Create(filepath.Join(s.Cfg.MediaDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return "/media/" + name, nil
}

// ------------------------------------------------------------------
// Comments
// ------------------------------------------------------------------

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, _ := auth.UserIDFrom(ctx)

	post, ok := s.findPost(w, r)
	if !ok {
		return
	}
	detail := "/posts/" + strconv.FormatInt(post.ID, 10) + "/"

	// A failed validation still lands on the detail page with no comment
	// row and no message. Kept as-is; see the regression test.
	if f, errs := forms.ParseComment(r.FormValue("text")); !errs.Any() {
		c := models.Comment{PostID: post.ID, AuthorID: uid, Text: f.Text}
		if err := s.comments.Insert(ctx, &c); err != nil {
			s.serverError(w, "insert comment", err)
			return
		}
	}
	http.Redirect(w, r, detail, http.StatusSeeOther)
}

// ------------------------------------------------------------------
// Follows
// ------------------------------------------------------------------

func (s *Server) handleProfileFollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, _ := auth.UserIDFrom(ctx)

	author, err := s.users.FindByUsername(ctx, r.PathValue("username"))
	if errors.Is(err, repo.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, "find author", err)
		return
	}

	// Self-follow is refused silently.
	if author.ID != uid {
		if err := s.follows.Create(ctx, uid, author.ID); err != nil {
			s.serverError(w, "create follow", err)
			return
		}
	}
	http.Redirect(w, r, "/profile/"+url.PathEscape(author.Username)+"/", http.StatusSeeOther)
}

func (s *Server) handleProfileUnfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, _ := auth.UserIDFrom(ctx)

	author, err := s.users.FindByUsername(ctx, r.PathValue("username"))
	if errors.Is(err, repo.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, "find author", err)
		return
	}

	if err := s.follows.Delete(ctx, uid, author.ID); err != nil {
		s.serverError(w, "delete follow", err)
		return
	}
	http.Redirect(w, r, "/follow/", http.StatusSeeOther)
}

// ------------------------------------------------------------------
// Auth
// ------------------------------------------------------------------

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		data := s.newPageData(r.Context(), "Log in")
		data.Next = r.URL.Query().Get("next")
		data.Flash = r.URL.Query().Get("err")
		if r.URL.Query().Get("ok") == "1" {
			data.Flash = "Account created, you can log in now"
		}
		util.Render(w, "auth_login.html", data)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	sid, uid, err := auth.Login(r.Context(), s.DB, email, password, s.Cfg.SessionLifetime)
	if err != nil {
		log.Printf("login FAIL email=%s err=%v", email, err)
		http.Redirect(w, r,
			"/login?err=Invalid+email+or+password&next="+url.QueryEscape(next),
			http.StatusSeeOther)
		return
	}
	log.Printf("login OK email=%s uid=%d", email, uid)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.Cfg.SessionLifetime.Seconds()),
	})
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		data := s.newPageData(r.Context(), "Sign up")
		data.Flash = r.URL.Query().Get("err")
		util.Render(w, "auth_signup.html", data)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if err := auth.Signup(r.Context(), s.DB, email, username, password); err != nil {
		msg := "Could not create the account"
		if errors.Is(err, auth.ErrEmailTaken) {
			msg = "Email already taken"
		} else if errors.Is(err, auth.ErrUsernameTaken) {
			msg = "Username already taken"
		}
		http.Redirect(w, r, "/signup?err="+url.QueryEscape(msg), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login?ok=1", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		_ = auth.Logout(r.Context(), s.DB, c.Value)
		c.MaxAge = -1
		c.Path = "/"
		http.SetCookie(w, c)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ------------------------------------------------------------------
// Helpers
// ------------------------------------------------------------------

func (s *Server) findPost(w http.ResponseWriter, r *http.Request) (models.Post, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return models.Post{}, false
	}
	post, err := s.posts.FindByID(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		http.NotFound(w, r)
		return models.Post{}, false
	}
	if err != nil {
		s.serverError(w, "find post", err)
		return models.Post{}, false
	}
	return post, true
}

func (s *Server) serverError(w http.ResponseWriter, what string, err error) {
	log.Printf("%s: %v", what, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
