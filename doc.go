/*
Package tcrest is a small client for the REST API of a TeamCity-style build server.
It builds request URLs, picks the authentication mode from the configuration,
attaches headers, and parses JSON responses.  Every call is a single request sent
through a `Doer` (an `*http.Client` by default).

```go
c, err := tcrest.NewClient(tcrest.Config{
    Protocol: "https://",
    Host:     "ci.example.com",
    APIKey:   token,
})
if err != nil { return err }

builds, err := c.ReadJSON(ctx, "builds?locator=count:5")
```

# Authentication

The auth mode is derived from the `Config` on each call:

```
Config                          Mode     API root
{Host}                          guest    http://host/guestAuth/app/rest/
{Host, APIKey}                  apikey   http://host/app/rest/               + Authorization: Bearer <key>
{Host, User, Password}          basic    http://user:pw@host/httpAuth/app/rest/
{Host, User, Password, APIKey}  basic    http://user:pw@host/httpAuth/app/rest/ + Authorization: Bearer <key>
```

User and Password must be set together.  `NewClient` returns an error matching
`ErrConfiguration` otherwise.

# Calls

`Read()` returns the raw response body.  `ReadJSON()` asks for JSON and parses the body
with `jsonutil.ToJSON()`: if the body isn't valid JSON, it comes back as a string
instead of an error.  `ReadInto()` unmarshals into a typed value.  `SendJSON()` posts a
JSON body and parses the response like `ReadJSON()`.

Each accepts `CallOption`s:

```go
c.Read(ctx, "builds/id:1", tcrest.Method("DELETE"))
c.ReadJSON(ctx, "builds", tcrest.QueryParams(BuildQuery{Locator: "state:running"}))
c.SendJSON(ctx, "buildQueue", req, tcrest.Header("X-Trace", id))
```

Responses with a non-2XX status return an `ErrUnexpectedStatus` error carrying the status
code (`merry.HTTPCode(err)`) and the body (`StatusBody(err)`).  Errors from the transport
itself are returned unchanged.  Nothing is retried.

# Configuration files

`LoadConfig()` reads a YAML file, expanding environment variables:

```yaml
protocol: https://
host: ci.example.com
user: ${CI_USER}
password: ${CI_PASSWORD}
transport:
  timeout: 30s
```

# Doer and Middleware

The transport can be replaced with `WithDoer()`, and wrapped with `Middleware`:

```go
c, err := tcrest.NewClient(cfg, tcrest.WithDoer(myClient), tcrest.Dump(os.Stderr))
```

The `tcresttest` package has a fake build server for tests.
*/
package tcrest
