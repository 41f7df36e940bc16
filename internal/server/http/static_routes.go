package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// 前端有桌面和手机两套页面
type frontend struct {
	name   string // cookie / ?view= 里的值
	prefix string // 挂载路径，带结尾斜杠
	dir    string
}

const viewCookie = "xiangqi_view"

var viewAliases = map[string]string{
	"web": "web", "desktop": "web", "pc": "web",
	"mobile": "mobile", "m": "mobile", "phone": "mobile", "web_mobile": "mobile",
}

var mobileAgents = []string{"android", "iphone", "ipad", "ipod", "mobile", "windows phone", "harmony"}

// mountFrontends /web/ 桌面版、/web_mobile/ 手机版，根路径按 ?view=、cookie、User-Agent 的顺序选一个跳过去
func mountFrontends(r chi.Router, desktopDir, mobileDir string) {
	if desktopDir == "" {
		desktopDir = "."
	}
	if mobileDir == "" {
		mobileDir = desktopDir
	}
	desktop := frontend{name: "web", prefix: "/web/", dir: desktopDir}
	mobile := frontend{name: "mobile", prefix: "/web_mobile/", dir: mobileDir}

	for _, fe := range []frontend{desktop, mobile} {
		r.Handle(fe.prefix+"*", http.StripPrefix(fe.prefix, http.FileServer(http.Dir(fe.dir))))
		r.Get(strings.TrimSuffix(fe.prefix, "/"), redirectTo(fe.prefix))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		fe := desktop
		if chooseView(w, r) == mobile.name {
			fe = mobile
		}
		w.Header().Set("Vary", "User-Agent, Cookie")
		http.Redirect(w, r, fe.prefix, http.StatusFound)
	})
}

func redirectTo(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// chooseView 显式的 ?view= 会写进 cookie，之后不用再带
func chooseView(w http.ResponseWriter, r *http.Request) string {
	if v, ok := viewAliases[strings.ToLower(strings.TrimSpace(r.URL.Query().Get("view")))]; ok {
		http.SetCookie(w, &http.Cookie{
			Name:     viewCookie,
			Value:    v,
			Path:     "/",
			MaxAge:   30 * 24 * 3600,
			SameSite: http.SameSiteLaxMode,
		})
		return v
	}
	if c, err := r.Cookie(viewCookie); err == nil {
		if v, ok := viewAliases[strings.ToLower(c.Value)]; ok {
			return v
		}
	}
	ua := strings.ToLower(r.UserAgent())
	for _, needle := range mobileAgents {
		if ua != "" && strings.Contains(ua, needle) {
			return "mobile"
		}
	}
	return "web"
}
