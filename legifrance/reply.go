package legifrance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/catleg"
)

// inForce is the state of a text in force.
const inForce = "VIGUEUR"

// timestamp is a Legifrance date: milliseconds since the Unix epoch, sent
// either as a number or as a string.
type timestamp struct {
	ms    int64
	valid bool
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" || s == `""` {
		*t = timestamp{}
		return nil
	}
	s = strings.Trim(s, `"`)
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", b, err)
	}
	*t = timestamp{ms: ms, valid: true}
	return nil
}

type articleJSON struct {
	ID              string    `json:"id"`
	Num             string    `json:"num"`
	Texte           string    `json:"texte"`
	TexteHTML       string    `json:"texteHtml"`
	Nota            string    `json:"nota"`
	NotaHTML        string    `json:"notaHtml"`
	DateFin         timestamp `json:"dateFin"`
	ArticleVersions []struct {
		ID        string    `json:"id"`
		DateDebut timestamp `json:"dateDebut"`
	} `json:"articleVersions"`
	Context struct {
		TitreTxt []struct {
			Titre string `json:"titre"`
			Etat  string `json:"etat"`
		} `json:"titreTxt"`
		TitresTM []struct {
			Titre string `json:"titre"`
		} `json:"titresTM"`
	} `json:"context"`
}

// parseArticle converts a getArticle or juri reply. The article is found
// under the "article" or the "text" key; a null value means it does not
// exist.
func parseArticle(raw json.RawMessage, requested catleg.ArticleID) (*catleg.ReferenceArticle, error) {
	var reply map[string]json.RawMessage
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("decoding article reply: %w", err)
	}
	body, ok := reply["article"]
	if !ok {
		body, ok = reply["text"]
	}
	if !ok {
		return nil, catleg.Errorf(catleg.EINTERNAL, "could not parse Legifrance reply for %s", requested)
	}
	if len(bytes.TrimSpace(body)) == 0 || string(bytes.TrimSpace(body)) == "null" {
		return nil, catleg.ErrArticleNotFound.Errorf("article %s not found", requested)
	}

	var a articleJSON
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("decoding article %s: %w", requested, err)
	}
	id, err := catleg.ParseArticleID(a.ID)
	if err != nil {
		return nil, fmt.Errorf("article %s: %w", requested, err)
	}

	ref := &catleg.ReferenceArticle{
		ID:            id,
		Num:           a.Num,
		Text:          a.Texte,
		TextHTML:      a.TexteHTML,
		Nota:          a.Nota,
		NotaHTML:      a.NotaHTML,
		LatestVersion: latestVersion(id, &a),
	}
	if ref.Text == "" && ref.TextHTML != "" {
		ref.Text = plainText(ref.TextHTML)
	}
	if a.DateFin.valid {
		ref.ExpiresAt = catleg.FromTimestamp(a.DateFin.ms)
	}
	for _, t := range a.Context.TitreTxt {
		ref.Context.Texts = append(ref.Context.Texts, catleg.ParentText{Title: t.Titre, InForce: t.Etat == inForce})
	}
	for _, s := range a.Context.TitresTM {
		ref.Context.Sections = append(ref.Context.Sections, s.Titre)
	}
	return ref, nil
}

// latestVersion returns the version with the most recent start date.
// Court decisions have a single version.
func latestVersion(id catleg.ArticleID, a *articleJSON) catleg.ArticleID {
	if id.Authority == catleg.CETATEXT {
		return id
	}
	latest := id
	var latestStart int64
	found := false
	for _, v := range a.ArticleVersions {
		if !v.DateDebut.valid || (found && v.DateDebut.ms <= latestStart) {
			continue
		}
		vid, err := catleg.ParseArticleID(v.ID)
		if err != nil {
			continue
		}
		latest, latestStart, found = vid, v.DateDebut.ms, true
	}
	return latest
}

// plainText extracts the text of an HTML fragment, one line per block.
func plainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	lines := strings.Split(doc.Text(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

type tocJSON struct {
	ID       string    `json:"id"`
	CID      string    `json:"cid"`
	Title    string    `json:"title"`
	Num      string    `json:"num"`
	IntOrdre int       `json:"intOrdre"`
	Content  string    `json:"content"`
	Sections []tocJSON `json:"sections"`
	Articles []tocJSON `json:"articles"`
}

// parseTOC converts a table of contents reply into an arena. Replies
// without a "sections" key have no table of contents.
func parseTOC(raw json.RawMessage, textID string) (*catleg.TOC, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decoding table of contents: %w", err)
	}
	if s, ok := probe["sections"]; !ok || string(bytes.TrimSpace(s)) == "null" {
		return nil, catleg.ErrTocNotFound.Errorf("could not retrieve table of contents for text %s", textID)
	}

	var root tocJSON
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("decoding table of contents: %w", err)
	}
	if root.ID == "" {
		root.ID = textID
	}

	toc := &catleg.TOC{}
	type pending struct {
		src   *tocJSON
		index int
	}
	toc.Add(tocNode(&root, catleg.KindSection))
	stack := []pending{{src: &root, index: toc.Root()}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := range p.src.Articles {
			idx := toc.Add(tocNode(&p.src.Articles[i], catleg.KindArticle))
			toc.Nodes[p.index].Articles = append(toc.Nodes[p.index].Articles, idx)
		}
		for i := range p.src.Sections {
			child := &p.src.Sections[i]
			idx := toc.Add(tocNode(child, catleg.KindSection))
			toc.Nodes[p.index].Sections = append(toc.Nodes[p.index].Sections, idx)
			stack = append(stack, pending{src: child, index: idx})
		}
	}
	return toc, nil
}

func tocNode(n *tocJSON, kind catleg.NodeKind) catleg.TOCNode {
	return catleg.TOCNode{
		ID:    n.ID,
		CID:   n.CID,
		Kind:  kind,
		Title: n.Title,
		Num:   n.Num,
		Order: n.IntOrdre,
		HTML:  n.Content,
	}
}
