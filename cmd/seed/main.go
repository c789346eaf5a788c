package main

import (
	"context"
	"fmt"

	"github.com/bookstore-app/store/pkg/books"
	"github.com/bookstore-app/store/pkg/config"
	"github.com/bookstore-app/store/pkg/database"
	"github.com/bookstore-app/store/pkg/migrations"
	"github.com/bookstore-app/store/pkg/models"
	"github.com/bookstore-app/store/pkg/relations"
	"github.com/bookstore-app/store/pkg/users"
	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
)

type demoBook struct {
	name   string
	price  string
	author string
}

var demoBooks = []demoBook{
	{"Dune", "25.00", "Frank Herbert"},
	{"Emma", "9.99", "Jane Austen"},
	{"The Left Hand of Darkness", "14.50", "Ursula K. Le Guin"},
	{"Programming in Go", "39.99", "Mark Summerfield"},
}

func main() {
	ctx := context.Background()
	log := logger.New()

	var opts struct {
		Password string `short:"p" long:"password" default:"password123" description:"Password for every demo user"`
		Readers  int    `short:"r" long:"readers" default:"3" description:"Number of reader accounts to create"`
	}
	if _, err := flags.Parse(&opts); err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	if _, err := migrations.BringUpToDate(ctx, db); err != nil {
		log.Err(err).Fatal("migrations error")
	}

	userService := users.NewService(db)
	bookService := books.NewService(db)
	relationService := relations.NewService(db)

	staff, err := userService.Create(ctx, users.CreateUserOptions{
		Username:  "admin",
		FirstName: "Admin",
		Password:  opts.Password,
		IsStaff:   true,
	})
	if err != nil {
		log.Err(err).Fatal("create staff user error")
	}

	readers := make([]*models.User, 0, opts.Readers)
	for i := 1; i <= opts.Readers; i++ {
		reader, err := userService.Create(ctx, users.CreateUserOptions{
			Username:  fmt.Sprintf("reader%d", i),
			FirstName: "Reader",
			LastName:  fmt.Sprint(i),
			Email:     fmt.Sprintf("reader%d@example.com", i),
			Password:  opts.Password,
		})
		if err != nil {
			log.Err(err).Fatal("create reader error")
		}
		readers = append(readers, reader)
	}

	owner := models.PrincipalForUser(staff)
	for i, b := range demoBooks {
		book, err := bookService.CreateBook(ctx, owner, books.CreateBookOptions{
			Name:       b.name,
			Price:      models.MustParsePrice(b.price),
			AuthorName: b.author,
		})
		if err != nil {
			log.Err(err).Fatal("create book error")
		}

		for j, reader := range readers {
			like := (i+j)%2 == 0
			rate := (i+j)%models.RateMax + models.RateMin
			_, err := relationService.UpsertRelation(ctx, models.PrincipalForUser(reader), book.ID, relations.UpsertRelationOptions{
				Like: &like,
				Rate: &rate,
			})
			if err != nil {
				log.Err(err).Fatal("create relation error")
			}
		}
	}

	log.Info("seeded demo data", logger.Data{"books": len(demoBooks), "readers": len(readers)})
}
