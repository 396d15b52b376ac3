package ingestion

const napaLayout = `{
  "pages": [{"page_number": 1}],
  "document_layout": {"blocks": [
    {"text_block": {"text": "Dosage", "type_": "heading-1", "blocks": [
      {"text_block": {"text": "Brand name: Napa", "type_": "paragraph"}},
      {"text_block": {"text": "Usage: Fever  and pain", "type_": "paragraph"}}
    ]}},
    {"list_block": {"list_entries": [{"text": "Nausea"}, {"text": "Headache"}]}}
  ]}
}`

const tableLayout = `{
  "pages": [{}, {}],
  "document_layout": {"blocks": [
    {"table_block": {"body_rows": [
      {"cells": [{"blocks": [{"text_block": {"text": "Age"}}]}, {"blocks": [{"text_block": {"text": "Dose"}}]}]},
      {"cells": [{"blocks": [{"text_block": {"text": "6-12"}}]}, {"blocks": [{"text_block": {"text": "250 mg"}}]}]}
    ]}}
  ]}
}`

const emptyLayout = `{"pages": [{}], "document_layout": {"blocks": []}}`
