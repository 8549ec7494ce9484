package main

import (
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"

	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
)

// Loads the ingredient reference data from a CSV file with
// "name,measurement_unit" rows. Rows whose name already exists are
// skipped so the command is safe to rerun.
func main() {
	path := flag.String("file", "data/ingredients.csv", "path to the ingredients CSV file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	imported, skipped := 0, 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read CSV: %v", err)
		}

		ingredient := models.Ingredient{
			Name:            record[0],
			MeasurementUnit: record[1],
		}

		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ingredient)
		if result.Error != nil {
			log.Fatalf("Failed to insert ingredient %q: %v", ingredient.Name, result.Error)
		}
		if result.RowsAffected == 0 {
			skipped++
		} else {
			imported++
		}
	}

	log.Printf("Imported %d ingredients, skipped %d existing", imported, skipped)
}
