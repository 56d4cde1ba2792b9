package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"imdiekejordan/auctionworker/helpers"
)

// Field extractors. Target pages are third-party and structurally
// inconsistent, so every field is an ordered strategy cascade: each strategy
// accepts progressively looser evidence, bounded by sanity ranges to reject
// false positives, and the cascade bottoms out at a documented sentinel.

var (
	clockTextRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
	lotLabelRe  = regexp.MustCompile(`(?i)^Lot\s*#`)

	applicableLotFeeRe = regexp.MustCompile(`(?i)applicable\s*lot\s*fee[:\s]*\$?([\d,]+\.?\d*)`)
	lotFeeRe           = regexp.MustCompile(`(?i)lot\s*fee[:\s]*\$?([\d,]+\.?\d*)`)

	premiumPctRe = regexp.MustCompile(`(?i)buyer['’]?s?\s*premium[:\s]*(\d+(?:\.\d+)?)\s*%`)
	pctPremiumRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s*buyer['’]?s?\s*premium`)
)

// priceSelectors is scanned in order; the first element whose text carries a
// dollar amount wins.
var priceSelectors = []string{
	`[class*="price"]`,
	`[class*="bid"]`,
	`[class*="current"]`,
	`[id*="price"]`,
	`[id*="bid"]`,
	`strong:contains("$")`,
	`.price`,
	`.bid-price`,
	`.current-bid`,
}

// ExtractItemName resolves the item name: social title metadata, then the
// first title-classed element that is neither a clock readout nor a bare lot
// number label, then the document title up to its first "|" separator.
func ExtractItemName(doc *goquery.Document) string {
	if ogTitle, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if name := strings.TrimSpace(ogTitle); name != "" {
			return name
		}
	}

	name := ""
	doc.Find(`[class*="title"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text != "" && !clockTextRe.MatchString(text) && !lotLabelRe.MatchString(text) {
			name = text
			return false
		}
		return true
	})
	if name != "" {
		return name
	}

	if title := helpers.FirstSegment(doc.Find("title").Text(), "|"); title != "" {
		return title
	}
	return UnknownItem
}

// ExtractCurrentPrice resolves the current bid price as formatted currency
// text, falling back from price-hinting selectors to a body-wide scan.
func ExtractCurrentPrice(doc *goquery.Document) string {
	for _, selector := range priceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if price, ok := ExtractCurrency(text); ok {
			return price
		}
	}

	if price, ok := ExtractCurrency(doc.Find("body").Text()); ok {
		return price
	}
	return NoValue
}

// ExtractNextRequiredBid resolves the next required bid, re-rendered as
// canonical two-decimal currency text.
func ExtractNextRequiredBid(doc *goquery.Document) string {
	result := ""
	doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "Next Required Bid") {
			return true
		}
		if amount, ok := ExtractNumeral(text); ok {
			result = FormatUSD(amount)
			return false
		}
		return true
	})
	if result != "" {
		return result
	}

	if sel := doc.Find(`[id*="next_required_bid"]`); sel.Length() > 0 {
		if amount, ok := ExtractNumeral(strings.TrimSpace(sel.First().Text())); ok {
			return FormatUSD(amount)
		}
	}
	return NoValue
}

// findFeeRegion locates the fee-table-like region: an element with lot/fee
// attribute hints whose text names the applicable lot fee or carries the
// fee-table header triple.
func findFeeRegion(doc *goquery.Document) *goquery.Selection {
	return doc.Find(`[id*="lot_fees"], [class*="lot"], [class*="fee"]`).FilterFunction(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(s.Text())
		if strings.Contains(text, "applicable lot fee") {
			return true
		}
		return strings.Contains(text, "fee name") &&
			strings.Contains(text, "amount") &&
			strings.Contains(text, "type")
	})
}

func isFeeHeaderRow(lower string) bool {
	return strings.Contains(lower, "fee name") &&
		strings.Contains(lower, "amount") &&
		strings.Contains(lower, "type")
}

func mentionsPremium(lower string) bool {
	return strings.Contains(lower, "premium") || strings.Contains(lower, "buyer")
}

// ExtractLotFees accumulates flat and percentage lot fees. Unlike the other
// fields this is additive: a lot can carry several fees. bidAmount is the
// parsed current price, used for percentage rows.
func ExtractLotFees(doc *goquery.Document, bidAmount float64) float64 {
	total := 0.0

	feeRegion := findFeeRegion(doc)
	if feeRegion.Length() > 0 {
		container := feeRegion.First().Parent()
		if container.Length() == 0 {
			container = feeRegion.First()
		}

		container.Find("div.row, tr").Each(func(_ int, row *goquery.Selection) {
			rowText := row.Text()
			lower := strings.ToLower(rowText)
			if isFeeHeaderRow(lower) {
				return
			}

			if strings.Contains(lower, "flat") {
				if fee, ok := ExtractNumeral(rowText); ok && fee > 0 && fee <= 1000 && !mentionsPremium(lower) {
					total += fee
				}
			}

			if strings.Contains(lower, "percent") && bidAmount > 0 {
				if pct, ok := ExtractPercent(rowText); ok && pct > 0 && pct <= 20 && !mentionsPremium(lower) {
					total += PercentOf(bidAmount, pct)
				}
			}
		})
	}

	if total == 0 {
		bodyText := doc.Find("body").Text()
		total = sumFeeMatches(bodyText, 1000)
		if total == 0 {
			total = sumFeeMatches(bodyText, 10000)
		}
	}

	return total
}

// sumFeeMatches sums every "lot fee: $N" phrase in text whose amount is
// within (0, bound].
func sumFeeMatches(text string, bound float64) float64 {
	total := 0.0
	for _, re := range []*regexp.Regexp{applicableLotFeeRe, lotFeeRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if fee, ok := ParseAmount(m[1]); ok && fee > 0 && fee <= bound {
				total += fee
			}
		}
	}
	return total
}

// ExtractBuyersPremium resolves the buyer's premium surcharge, computed
// against the current price. First match wins; each fallback widens the
// search but tightens the sanity range to keep unrelated percentages out.
func ExtractBuyersPremium(doc *goquery.Document, bidAmount float64) float64 {
	bodyText := doc.Find("body").Text()

	// Explicitly labelled premium anywhere on the page.
	for _, re := range []*regexp.Regexp{premiumPctRe, pctPremiumRe} {
		if m := re.FindStringSubmatch(bodyText); m != nil {
			if pct, ok := ParseAmount(m[1]); ok && pct > 0 && pct < 100 && bidAmount > 0 {
				return PercentOf(bidAmount, pct)
			}
		}
	}

	// Any plausible percentage inside the fee region with premium-ish words
	// close by.
	feeRegion := findFeeRegion(doc)
	if feeRegion.Length() > 0 {
		tableText := feeRegion.Text()
		for _, loc := range percentRe.FindAllStringSubmatchIndex(tableText, -1) {
			pct, ok := ParseAmount(tableText[loc[2]:loc[3]])
			if !ok || pct < 3 || pct > 20 || bidAmount <= 0 {
				continue
			}
			context := strings.ToLower(helpers.Window(tableText, loc[0], loc[1], 50))
			if strings.Contains(context, "premium") || strings.Contains(context, "buyer") || strings.Contains(context, "bid") {
				return PercentOf(bidAmount, pct)
			}
		}
	}

	// Last resort: body-wide percentages in the usual premium range, only
	// when both "buyer" and "premium" appear nearby.
	for _, loc := range percentRe.FindAllStringSubmatchIndex(bodyText, -1) {
		pct, ok := ParseAmount(bodyText[loc[2]:loc[3]])
		if !ok || pct < 10 || pct > 20 || bidAmount <= 0 {
			continue
		}
		context := strings.ToLower(helpers.Window(bodyText, loc[0], loc[1], 100))
		if strings.Contains(context, "buyer") && strings.Contains(context, "premium") {
			return PercentOf(bidAmount, pct)
		}
	}

	return 0
}
