package routes

import (
	"net/http"

	"smartstock/app"
	"smartstock/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	authCtl := controllers.NewAuthController(s)
	userCtl := controllers.NewUserController(s)
	loanCtl := controllers.NewLoanController(s)
	returnCtl := controllers.NewReturnController(s)
	toolCtl := controllers.NewToolController(s)
	catalogCtl := controllers.NewCatalogController(s)
	reportCtl := controllers.NewReportController(s)

	// 复用的中间件
	authMW := app.AuthRequired(s.AppSess, s.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, a.Config.Session.SeenThrottle, a.Log)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })

	// ------------------------------
	// 登录 / 会话
	// ------------------------------
	auth := r.Group("/auth")
	{
		auth.POST("/login", authCtl.Login)
	}
	authed := auth.Group("", authMW, seenMW)
	{
		authed.GET("/whoami", authCtl.WhoAmI)
		authed.POST("/logout", authCtl.Logout)
	}

	// ------------------------------
	// 仓库操作员：扫码 / 借出 / 归还 / 库存
	// ------------------------------
	api := r.Group("/api", authMW, seenMW)
	{
		api.GET("/scan", loanCtl.Scan)

		api.POST("/loans", loanCtl.CreateLoan)
		api.GET("/loans", loanCtl.ListLoans) // ?state=open|closed&workerId=
		api.GET("/loans/:id", loanCtl.GetLoan)

		api.POST("/returns", returnCtl.ProcessReturns)
		api.GET("/returns/lines/:id/photo", returnCtl.EvidencePhoto)

		api.GET("/tools", toolCtl.ListTools) // ?q=&status=
		api.GET("/tools/available", toolCtl.ListByStatus("available"))
		api.GET("/tools/in-use", toolCtl.ListInUse)
		api.GET("/tools/maintenance", toolCtl.ListByStatus("maintenance"))
		api.GET("/tools/:id", toolCtl.GetTool)
		api.POST("/tools/:id/release", toolCtl.Release)

		api.GET("/workers", catalogCtl.ListWorkers)
		api.GET("/categories", catalogCtl.ListCategories)
		api.GET("/locations", catalogCtl.ListLocations)
	}

	// ------------------------------
	// 管理员
	// ------------------------------
	admin := api.Group("", adminMW)
	{
		admin.POST("/tools", toolCtl.CreateTool)
		admin.PUT("/tools/:id", toolCtl.UpdateTool)
		admin.POST("/tools/:id/decommission", toolCtl.Decommission)
		admin.POST("/tools/:id/reactivate", toolCtl.Reactivate)
		admin.GET("/tools/decommissioned", toolCtl.ListByStatus("decommissioned"))

		admin.POST("/workers", catalogCtl.CreateWorker)
		admin.DELETE("/workers/:id", catalogCtl.DeactivateWorker)
		admin.POST("/categories", catalogCtl.CreateCategory)
		admin.DELETE("/categories/:id", catalogCtl.DeactivateCategory)
		admin.POST("/locations", catalogCtl.CreateLocation)
		admin.DELETE("/locations/:id", catalogCtl.DeactivateLocation)

		admin.GET("/users", userCtl.ListUsers) // ?q=&page=&size=
		admin.GET("/users/:id", userCtl.GetUser)
		admin.POST("/users", userCtl.CreateUser)
		admin.DELETE("/users/:id", userCtl.DeleteUser)

		admin.GET("/reports/summary", reportCtl.Summary)
		admin.GET("/reports/transactions", reportCtl.Transactions)
		admin.GET("/reports/decommissions", reportCtl.Decommissions)
		admin.GET("/reports/usage", reportCtl.Usage)
	}
}
