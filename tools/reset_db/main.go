package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"time-capsule/config"
	dbPkg "time-capsule/pkg/db"
)

// 子表在前
var tables = []string{
	"direct_message",
	"friendship",
	"time_capsule",
	"voice_post",
	"profile_award",
	"olympiad_participation",
	"admin_settings",
	"profile",
}

func main() {
	cfg := config.LoadConfig()

	db, err := dbPkg.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer func() { _ = dbPkg.Close(db) }()

	fmt.Println("Database connected successfully")
	fmt.Printf("Database: %s\n", cfg.Database.Database)

	fmt.Printf("\nWARNING: This operation will CLEAR ALL DATA in tables %v!\n", tables)
	fmt.Printf("Type the database name (%s) to confirm: ", cfg.Database.Database)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	if strings.TrimSpace(line) != cfg.Database.Database {
		fmt.Println("Operation cancelled")
		return
	}

	if err := db.Exec("SET FOREIGN_KEY_CHECKS=0").Error; err != nil {
		log.Fatalf("Disable foreign key checks failed: %v", err)
	}
	defer db.Exec("SET FOREIGN_KEY_CHECKS=1")

	failed := 0
	for _, table := range tables {
		fmt.Printf("Clearing table %s... ", table)
		if !db.Migrator().HasTable(table) {
			fmt.Println("Skipped (missing)")
			continue
		}
		if err := db.Exec(fmt.Sprintf("DELETE FROM `%s`", table)).Error; err != nil {
			failed++
			fmt.Printf("Failed: %v\n", err)
			continue
		}
		if err := db.Exec(fmt.Sprintf("ALTER TABLE `%s` AUTO_INCREMENT = 1", table)).Error; err != nil {
			failed++
			fmt.Printf("Cleared, auto-increment reset failed: %v\n", err)
			continue
		}
		fmt.Println("Success")
	}

	if failed > 0 {
		fmt.Printf("\nDatabase reset finished with %d failures\n", failed)
		os.Exit(1)
	}
	fmt.Println("\nDatabase reset completed!")
	fmt.Println("All table data cleared, table structure preserved")
}
