package main

import (
	"fmt"

	"blogapi/app"
	"blogapi/config"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	r, err := app.NewRouter()
	if err != nil {
		panic(err)
	}

	zap.L().Info("Server starting")

	err = r.Run(fmt.Sprintf(":%d", viper.GetInt("host.port")))
	if err != nil {
		panic(err)
	}
}
