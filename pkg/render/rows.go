package render

// DefaultRowTemplate renders a formset row as a table row of text inputs. It
// expects the data produced by formset.RowContext.Map.
const DefaultRowTemplate = `<tr class="formset-row" data-row-index="{{ index }}">` +
	`<td><span class="row-counter">{{ counter }}</span></td>` +
	`{% for f in fields %}<td><input type="text" name="{{ f.name }}" id="{{ f.id }}" value="{{ f.value }}">` +
	`{% for msg in f.errors %}<span class="field-error">{{ msg }}</span>{% endfor %}</td>{% endfor %}` +
	`</tr>`
