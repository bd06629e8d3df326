package express

import "net/http"

// CORS returns middleware that allows cross-origin GET requests from
// allowOrigin. Preflight OPTIONS requests are answered directly with an
// empty body; every other request continues down the chain.
func CORS(allowOrigin string) Middleware {
	return func(req *Request, res *Response, next Next) {
		res.SetHeader("Access-Control-Allow-Origin", allowOrigin)
		res.SetHeader("Access-Control-Allow-Headers", "Accept, Content-Type")
		res.SetHeader("Access-Control-Allow-Methods", "GET, OPTIONS")

		if req.Method() == http.MethodOptions {
			res.SetHeader("Allow", "GET, OPTIONS")
			_ = res.Send("")
			return
		}
		next()
	}
}
