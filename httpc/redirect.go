package httpc

import "net/url"

// isRedirect reports whether status asks the client to follow a new
// location.
func isRedirect(status int) bool {
	switch status {
	case 301, 302, 303, 307, 308:
		return true
	}
	return false
}

// resolveRedirect rewrites req in place to follow a redirect response.
// The Location value is resolved against the current URL, so relative
// targets work. 303, and 301/302 on non-GET/HEAD methods, switch to
// GET and drop the body; 307/308 re-send the original method and body.
func resolveRedirect(req *Request, status int, location string) bool {
	if location == "" {
		return false
	}
	ref, err := url.Parse(location)
	if err != nil {
		return false
	}
	u := req.url.ResolveReference(ref)
	switch u.Scheme {
	case "http", "https":
	default:
		return false
	}
	req.url = u
	switch status {
	case 303:
		req.method = "GET"
		req.body = nil
		req.chunkedReq = false
	case 301, 302:
		if req.method != "GET" && req.method != "HEAD" {
			req.method = "GET"
			req.body = nil
			req.chunkedReq = false
		}
	}
	return true
}
