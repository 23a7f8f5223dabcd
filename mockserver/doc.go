// Package mockserver serves canned responses for clients running with the
// mock server stub mode.
//
// Routes map a method and gin-style path to a fixture or inline body:
//
//	routes:
//	  - method: GET
//	    path: /users/:id
//	    fixture: user_ok
//	    headers:
//	      X-Mock: "true"
//	  - method: POST
//	    path: /users
//	    status: 201
//	    body: '{"id":2}'
//	    delay: 100ms
//
// Unmatched requests get a 404 JSON body and fixture-backed routes whose
// fixture is missing get a 500. GET /__health reports route readiness.
package mockserver
