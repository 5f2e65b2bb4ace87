package imports

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aveline/wardrobe-import/internal/cache"
)

// mockAI is a configurable AIExtractor
type mockAI struct {
	identifyItems     []Item
	identifyErr       error
	imageResults      map[string]ImageResult
	imageErrs         map[string]error
	imageLookupCalls  int
	identifyTextCalls int
}

func (m *mockAI) IdentifyItems(ctx context.Context, text string) ([]Item, error) {
	m.identifyTextCalls++
	return m.identifyItems, m.identifyErr
}

func (m *mockAI) IdentifyItemsFromImage(ctx context.Context, pngData []byte) ([]Item, error) {
	return m.identifyItems, m.identifyErr
}

func (m *mockAI) LookupImage(ctx context.Context, name string) (ImageResult, error) {
	m.imageLookupCalls++
	if err, ok := m.imageErrs[name]; ok {
		return ImageResult{}, err
	}
	return m.imageResults[name], nil
}

var _ = Describe("Service", func() {
	var (
		ai      *mockAI
		service *Service
	)

	BeforeEach(func() {
		ai = &mockAI{
			imageResults: map[string]ImageResult{},
			imageErrs:    map[string]error{},
		}
		imageCache := cache.New[ImageResult](cache.Options{DefaultTTL: time.Minute})
		service = NewService(ai, imageCache)
	})

	Describe("Import of a CSV export", func() {
		It("should route by filename extension", func() {
			data := []byte("Order Date,Order ID,Title,Item Total,Quantity,Seller\n" +
				"01/15/24,111-222,High Waisted Jeans,$42.00,1,DenimWorks\n")

			items, err := service.Import(context.Background(), "orders.csv", data, "application/octet-stream")
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("High Waisted Jeans"))
		})

		It("should wrap unreadable input in the fixed user-facing error", func() {
			_, err := service.Import(context.Background(), "orders.csv", []byte("Foo,Bar\n"), "text/csv")
			Expect(errors.Is(err, ErrUnreadableDocument)).To(BeTrue())
		})
	})

	Describe("Import of a photo", func() {
		It("should wrap undecodable image data in the fixed user-facing error", func() {
			_, err := service.Import(context.Background(), "receipt.jpg", []byte("not an image"), "image/jpeg")
			Expect(errors.Is(err, ErrUnreadableDocument)).To(BeTrue())
		})

		It("should treat an AI failure as zero items, not an error", func() {
			// A 1x1 PNG so decoding succeeds and only the remote call fails.
			png := tinyPNG()
			ai.identifyErr = errors.New("remote down")

			items, err := service.Import(context.Background(), "receipt.png", png, "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(BeEmpty())
		})
	})

	Describe("image enrichment", func() {
		var batch []Item

		BeforeEach(func() {
			batch = []Item{
				buildItem("Cozy Knit Sweater", 42, ImportMeta{Confidence: 0.7, Source: SourceParsed}),
				buildItem("Velvet Wrap Dress", 58, ImportMeta{Confidence: 0.7, Source: SourceParsed}),
				buildItem("Matte Lipstick Duo", 18.5, ImportMeta{Confidence: 0.7, Source: SourceParsed}),
			}
			ai.imageResults["Cozy Knit Sweater"] = ImageResult{Image: "https://img.example.com/sweater.jpg"}
			ai.imageResults["Matte Lipstick Duo"] = ImageResult{Image: "https://img.example.com/lipstick.jpg"}
			ai.imageErrs["Velvet Wrap Dress"] = errors.New("lookup failed")
		})

		It("should keep every item when one lookup fails", func() {
			enriched := service.enrichImages(context.Background(), batch)

			Expect(enriched).To(HaveLen(3))
			Expect(enriched[0].Image).To(Equal("https://img.example.com/sweater.jpg"))
			Expect(enriched[1].Image).To(BeEmpty())
			Expect(enriched[2].Image).To(Equal("https://img.example.com/lipstick.jpg"))
		})

		It("should memoize repeated lookups for the same product", func() {
			service.enrichImages(context.Background(), batch[:1])
			service.enrichImages(context.Background(), batch[:1])
			Expect(ai.imageLookupCalls).To(Equal(1))
		})

		It("should not overwrite a purchase URL found during parsing", func() {
			batch[0].PurchaseURL = "https://www.amazon.com/dp/B0EXAMPLE"
			ai.imageResults["Cozy Knit Sweater"] = ImageResult{
				Image:      "https://img.example.com/sweater.jpg",
				ProductURL: "https://elsewhere.example.com",
			}

			enriched := service.enrichImages(context.Background(), batch[:1])
			Expect(enriched[0].PurchaseURL).To(Equal("https://www.amazon.com/dp/B0EXAMPLE"))
		})
	})

	Describe("without an AI extractor", func() {
		BeforeEach(func() {
			service = NewService(nil, nil)
		})

		It("should return zero items for a photo instead of escalating", func() {
			items, err := service.Import(context.Background(), "receipt.png", tinyPNG(), "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(BeEmpty())
		})
	})
})

// tinyPNG is a valid 1x1 transparent PNG
func tinyPNG() []byte {
	return []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
		0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
		0x0b, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x60, 0x00, 0x02, 0x00,
		0x00, 0x05, 0x00, 0x01, 0x7a, 0x5e, 0xab, 0x3f, 0x00, 0x00, 0x00, 0x00,
		0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
	}
}
