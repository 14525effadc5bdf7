package tcrest_test

import (
	"context"
	"fmt"

	"github.com/ThalesGroup/tcrest"
	"github.com/ThalesGroup/tcrest/tcresttest"
	"github.com/ansel1/merry"
)

func Example() {
	ts := tcresttest.NewServer(tcresttest.Credentials{APIKey: "k"},
		tcresttest.StaticHandler(200, "application/json", `{"version":"2024.1"}`))
	defer ts.Close()

	c, err := ts.Client(tcrest.Config{APIKey: "k"})
	if err != nil {
		panic(err)
	}

	v, err := c.ReadJSON(context.Background(), "server")
	if err != nil {
		panic(err)
	}

	fmt.Println(v.(map[string]interface{})["version"])
	// Output: 2024.1
}

func ExampleConfig_APIURL() {
	fmt.Println(tcrest.Config{Protocol: "http://", Host: "ci"}.APIURL())
	fmt.Println(tcrest.Config{Protocol: "http://", Host: "ci", APIKey: "k"}.APIURL())
	fmt.Println(tcrest.Config{Protocol: "http://", Host: "ci", User: "bob", Password: "pw"}.APIURL())
	// Output:
	// http://ci/guestAuth/app/rest/
	// http://ci/app/rest/
	// http://bob:pw@ci/httpAuth/app/rest/
}

func ExampleNewClient() {
	_, err := tcrest.NewClient(tcrest.Config{Host: "ci", User: "bob"})
	fmt.Println(err)
	fmt.Println(merry.Is(err, tcrest.ErrConfiguration))
	// Output:
	// incorrect password: user is set without a password
	// true
}

func ExampleExpectSuccessCode() {
	c, _ := tcrest.NewClient(tcrest.Config{Host: "ci"},
		tcrest.WithDoer(tcrest.MockDoer(404, "text/plain", "No build found")))

	_, err := c.Read(context.Background(), "builds/id:1")

	fmt.Println(err)
	fmt.Println(merry.HTTPCode(err))
	fmt.Println(string(tcrest.StatusBody(err)))
	// Output:
	// server returned an unsuccessful status code: 404
	// 404
	// No build found
}
