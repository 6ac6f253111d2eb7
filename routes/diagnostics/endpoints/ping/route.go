package ping

import (
	"net/http"

	"randevu/state"

	docs "github.com/infinitybotlist/eureka/doclib"
	"github.com/infinitybotlist/eureka/uapi"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Hello struct {
	Message string `json:"message"`
	Docs    string `json:"docs"`
	OurSite string `json:"our_site"`
}

var helloWorld []byte
var helloWorldB Hello

func Setup() {
	helloWorldB = Hello{
		Message: "Hello world from the randevu API!",
		Docs:    state.Config.Sites.API.Parse() + "/docs",
		OurSite: state.Config.Sites.Frontend,
	}

	// This is done here to avoid constant remarshalling
	var err error
	helloWorld, err = json.Marshal(helloWorldB)

	if err != nil {
		panic(err)
	}
}

func Docs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Ping Server",
		Description: "This is a simple ping endpoint to check if the API is online. It will return a simple JSON object with a message, docs link and site link.",
		Resp:        helloWorldB,
	}
}

func Route(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	return uapi.HttpResponse{
		Bytes: helloWorld,
	}
}
