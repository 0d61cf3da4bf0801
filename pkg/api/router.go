package api

import (
	"strings"

	"github.com/valyala/fasthttp"
)

// router dispatches by method and path. Paths may hold {name} segments,
// exposed to handlers through ctx.UserValue(name).
type router struct {
	routes map[string][]route
}

type route struct {
	segments []segment
	handler  fasthttp.RequestHandler
}

type segment struct {
	name    string
	isParam bool
}

func newRouter() *router {
	return &router{routes: make(map[string][]route)}
}

func (r *router) GET(path string, h fasthttp.RequestHandler) {
	r.routes[fasthttp.MethodGet] = append(r.routes[fasthttp.MethodGet], route{segments: parse(path), handler: h})
}

func (r *router) Handler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	matched := false
	for method, list := range r.routes {
		for _, rt := range list {
			values, ok := match(path, rt.segments)
			if !ok {
				continue
			}
			matched = true
			if method != string(ctx.Method()) {
				continue
			}
			for k, v := range values {
				ctx.SetUserValue(k, v)
			}
			rt.handler(ctx)
			return
		}
	}
	if matched {
		WriteJSONError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		return
	}
	WriteJSONError(ctx, fasthttp.StatusNotFound, "not found")
}

func parse(path string) []segment {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	segs := make([]segment, len(parts))
	for i, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") && len(part) > 2 {
			segs[i] = segment{name: part[1 : len(part)-1], isParam: true}
		} else {
			segs[i] = segment{name: part}
		}
	}
	return segs
}

func match(path string, segs []segment) (map[string]string, bool) {
	path = strings.Trim(path, "/")
	var parts []string
	if path != "" {
		parts = strings.Split(path, "/")
	}
	if len(parts) != len(segs) {
		return nil, false
	}
	values := make(map[string]string)
	for i, seg := range segs {
		if seg.isParam {
			values[seg.name] = parts[i]
			continue
		}
		if seg.name != parts[i] {
			return nil, false
		}
	}
	return values, true
}
