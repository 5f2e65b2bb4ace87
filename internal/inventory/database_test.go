package inventory

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aveline/wardrobe-import/internal/imports"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveItem", func() {
		var (
			item *Item
			err  error
		)

		BeforeEach(func() {
			item = &Item{
				Item: imports.Item{
					ID:    "item-1",
					Name:  "Ribbed Cotton Tank",
					Type:  imports.TypeClothing,
					Price: 18.50,
				},
				ImportID:  "batch-1",
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
		})

		JustBeforeEach(func() {
			err = db.SaveItem(item)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the item to the database", func() {
				saved, getErr := db.GetItem("item-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("item-1"))
			})
		})
	})

	Describe("GetItem", func() {
		var (
			itemID string
			item   *Item
			err    error
		)

		JustBeforeEach(func() {
			item, err = db.GetItem(itemID)
		})

		When("item exists", func() {
			BeforeEach(func() {
				itemID = "item-1"
				testItem := &Item{
					Item: imports.Item{
						ID:    "item-1",
						Name:  "Ribbed Cotton Tank",
						Type:  imports.TypeClothing,
						Price: 18.50,
					},
					ImportID:  "batch-1",
					CreatedAt: time.Now(),
					UpdatedAt: time.Now(),
				}
				Expect(db.SaveItem(testItem)).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the correct item", func() {
				Expect(item.Name).To(Equal("Ribbed Cotton Tank"))
				Expect(item.Price).To(Equal(18.50))
				Expect(item.ImportID).To(Equal("batch-1"))
			})
		})

		When("item does not exist", func() {
			var expectedErr error

			BeforeEach(func() {
				itemID = "nonexistent"
				expectedErr = errors.New("item not found: nonexistent")
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(expectedErr))
			})
		})
	})

	Describe("ListItems", func() {
		var (
			items []*Item
			err   error
		)

		JustBeforeEach(func() {
			items, err = db.ListItems()
		})

		When("items exist", func() {
			BeforeEach(func() {
				item1 := &Item{Item: imports.Item{ID: "id1", Name: "Item 1"}}
				item2 := &Item{Item: imports.Item{ID: "id2", Name: "Item 2"}}
				Expect(db.SaveItem(item1)).NotTo(HaveOccurred())
				Expect(db.SaveItem(item2)).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return all items", func() {
				Expect(items).To(HaveLen(2))
			})
		})

		When("no items exist", func() {
			It("should return an empty list", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(items).To(BeEmpty())
			})
		})
	})

	Describe("DeleteItem", func() {
		When("item exists", func() {
			BeforeEach(func() {
				item := &Item{Item: imports.Item{ID: "item-1", Name: "Item"}}
				Expect(db.SaveItem(item)).NotTo(HaveOccurred())
			})

			It("should remove the item from the database", func() {
				Expect(db.DeleteItem("item-1")).NotTo(HaveOccurred())
				_, getErr := db.GetItem("item-1")
				Expect(getErr).To(HaveOccurred())
			})
		})

		When("item does not exist", func() {
			It("should not return an error", func() {
				Expect(db.DeleteItem("nonexistent")).NotTo(HaveOccurred())
			})
		})
	})

	Describe("SaveImport", func() {
		var (
			batch *ImportBatch
			err   error
		)

		BeforeEach(func() {
			batch = &ImportBatch{
				ID:          "batch-1",
				Filename:    "orders.pdf",
				SourcePath:  "batch-1_orders.pdf",
				ContentType: "application/pdf",
				Status:      StatusPending,
				Candidates: []imports.Item{
					{ID: "item-1", Name: "Ribbed Cotton Tank"},
				},
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
		})

		JustBeforeEach(func() {
			err = db.SaveImport(batch)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the batch with its candidates", func() {
				saved, getErr := db.GetImport("batch-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Status).To(Equal(StatusPending))
				Expect(saved.Candidates).To(HaveLen(1))
			})
		})
	})

	Describe("GetImport", func() {
		When("batch does not exist", func() {
			It("returns the error", func() {
				_, err := db.GetImport("nonexistent")
				Expect(err).To(MatchError(errors.New("import not found: nonexistent")))
			})
		})
	})

	Describe("ListImports", func() {
		When("batches exist", func() {
			BeforeEach(func() {
				Expect(db.SaveImport(&ImportBatch{ID: "b1", Status: StatusPending})).NotTo(HaveOccurred())
				Expect(db.SaveImport(&ImportBatch{ID: "b2", Status: StatusConfirmed})).NotTo(HaveOccurred())
			})

			It("should return all batches", func() {
				batches, err := db.ListImports()
				Expect(err).NotTo(HaveOccurred())
				Expect(batches).To(HaveLen(2))
			})
		})

		When("no batches exist", func() {
			It("should return an empty list", func() {
				batches, err := db.ListImports()
				Expect(err).NotTo(HaveOccurred())
				Expect(batches).To(BeEmpty())
			})
		})
	})

	Describe("DeleteImport", func() {
		BeforeEach(func() {
			Expect(db.SaveImport(&ImportBatch{ID: "b1", Status: StatusPending})).NotTo(HaveOccurred())
		})

		It("should remove the batch from the database", func() {
			Expect(db.DeleteImport("b1")).NotTo(HaveOccurred())
			_, err := db.GetImport("b1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Close", func() {
		It("should not return an error", func() {
			Expect(db.Close()).NotTo(HaveOccurred())
		})
	})
})
