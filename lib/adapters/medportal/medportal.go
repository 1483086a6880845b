// Package medportal extracts patient records from the MedPortal records
// page. It is the reference adapter: it only reads the already-rendered
// page through the session, it never drives the portal itself.
package medportal

import (
	"context"
	"fmt"
	"medharvest-backend/services/orchestrator"
	"medharvest-backend/services/resume"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("adapters/medportal")

const Portal = "medportal"

func Register(registry *orchestrator.AdapterRegistry) {
	registry.Register(Portal, orchestrator.AdapterFunc(Extract))
}

func Extract(ctx context.Context, session orchestrator.SessionHandle, config orchestrator.AdapterConfig) ([]orchestrator.RawRecord, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	span.SetAttributes(
		attribute.String("mode", string(config.Mode)),
		attribute.String("unit_identifier", config.UnitIdentifier),
	)

	source, ok := session.(orchestrator.HTMLSource)
	if !ok {
		err := fmt.Errorf("session does not expose page html")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	html, err := source.PageHTML(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	records := parseRecords(doc)
	if config.Mode == orchestrator.ModeSingleUnit {
		records = filterByUnit(records, config.UnitIdentifier)
	}

	span.SetAttributes(attribute.Int("record_count", len(records)))
	return records, nil
}

// parseRecords walks the record cards on the page. Each card looks like:
//
//	<div class="record-card" data-record-id="...">
//	  <h3 class="record-name">...</h3>
//	  <ul class="record-items">
//	    <li><span class="item-name">...</span><span class="item-text">...</span></li>
//	  </ul>
//	  <dl class="record-meta"><dt>...</dt><dd>...</dd></dl>
//	</div>
func parseRecords(doc *goquery.Document) []orchestrator.RawRecord {
	var records []orchestrator.RawRecord
	doc.Find("div.record-card").Each(func(_ int, card *goquery.Selection) {
		record := orchestrator.RawRecord{}

		id, ok := card.Attr("data-record-id")
		if ok {
			record[orchestrator.FieldExternalID] = strings.TrimSpace(id)
		}
		sessionID, ok := card.Attr("data-session-id")
		if ok {
			record[orchestrator.FieldTransientID] = strings.TrimSpace(sessionID)
		}
		record[orchestrator.FieldName] = strings.TrimSpace(card.Find("h3.record-name").First().Text())

		var items []map[string]any
		card.Find("ul.record-items li").Each(func(_ int, li *goquery.Selection) {
			items = append(items, map[string]any{
				"name": strings.TrimSpace(li.Find("span.item-name").Text()),
				"text": strings.TrimSpace(li.Find("span.item-text").Text()),
			})
		})
		if items != nil {
			record[orchestrator.FieldItems] = items
		}

		var key string
		card.Find("dl.record-meta").Children().Each(func(_ int, child *goquery.Selection) {
			if child.Is("dt") {
				key = strings.TrimSpace(child.Text())
				return
			}
			if child.Is("dd") && key != "" {
				record[metaKey(key)] = strings.TrimSpace(child.Text())
				key = ""
			}
		})

		records = append(records, record)
	})
	return records
}

func metaKey(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}

// filterByUnit keeps the cards that belong to the requested unit, matching
// either the stable record id or the displayed name.
func filterByUnit(records []orchestrator.RawRecord, identifier string) []orchestrator.RawRecord {
	normalized := resume.NormalizeName(identifier)
	var matched []orchestrator.RawRecord
	for _, record := range records {
		id, _ := record[orchestrator.FieldExternalID].(string)
		name, _ := record[orchestrator.FieldName].(string)
		if id == identifier || resume.NormalizeName(name) == normalized {
			matched = append(matched, record)
		}
	}
	return matched
}
