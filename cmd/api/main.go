package main

import (
	"bizapp/internal/config"
	"bizapp/internal/domain/model"
	"bizapp/internal/handler"
	"bizapp/internal/infra/db"
	infraMail "bizapp/internal/infra/mail"
	infraRepo "bizapp/internal/infra/repository"
	"bizapp/internal/infra/resend"
	"bizapp/internal/notification"
	"bizapp/internal/server"
	"bizapp/internal/usecase"
	"bizapp/internal/validator"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	//.envはあれば読む（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Customer{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	customerRepo := infraRepo.NewCustomerGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//確認メール送信まわり
	mailer := infraMail.NewGomailSender(
		cfg.SMTPHost, cfg.SMTPPort,
		cfg.SMTPUsername, cfg.SMTPPassword,
		cfg.MailFrom,
	)

	//再送キューはREDIS_ADDRがあるときだけ
	var queue notification.ResendQueue
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		queue = resend.NewRedisQueue(rdb)
	}

	dispatcher := notification.NewDispatcher(mailer, queue, notification.Policy{
		Async:       cfg.NotifyAsync,
		MaxAttempts: cfg.NotifyMaxAttempts,
		RetryWait:   cfg.NotifyRetryWait,
	}, logger)

	//Usecase生成
	authValidator := validator.NewAuthValidator(userRepo)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, authValidator)
	customerUC := usecase.NewCustomerUsecase(customerRepo)
	productUC := usecase.NewProductUsecase(productRepo)
	orderUC := usecase.NewOrderUsecase(txManager, dispatcher)
	reportUC := usecase.NewReportUsecase(orderItemRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:     handler.NewAuthHandler(authUC),
		Customer: handler.NewCustomerHandler(customerUC),
		Product:  handler.NewProductHandler(productUC),
		Order:    handler.NewOrderHandler(orderUC),
		Report:   handler.NewReportHandler(reportUC),
	}

	e := server.New(cfg, logger, handlers)

	addr := ":" + cfg.Port
	logger.Info("starting server", zap.String("addr", addr))
	if err := server.Start(e, addr); err != nil {
		//送信中の確認メールを待ってから落ちる
		dispatcher.Wait()
		logger.Fatal("server stopped", zap.Error(err))
	}
}
