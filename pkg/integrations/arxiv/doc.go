// Package arxiv provides a source adapter for the arXiv query API.
//
// # Overview
//
// The adapter enriches paper records from
// https://export.arxiv.org/api/query?id_list={id}. The Atom response is
// parsed with gofeed's Atom parser: title, summary, authors, categories,
// the PDF link, and arxiv:journal_ref as the venue. Without a journal
// reference the primary category is used.
//
// # Rate Limits
//
// arXiv asks for no more than one request every three seconds. The adapter
// enforces that spacing and ten requests per minute.
//
// # Covers
//
// With [WithCovers], the adapter downloads the PDF, renders page 1 with a
// [Renderer] and stores {dir}/{arxivId}.png. [PDFToPPM] shells out to
// poppler's pdftoppm inside a temp dir that is removed on return, then
// crops the top of the page with [CropTop]. Covers that already exist are
// not rendered again. A failed cover never fails the fetch.
//
//	client := arxiv.NewClient(integrations.Options{Cache: c},
//	    arxiv.WithCovers("public/covers", "/covers", arxiv.PDFToPPM{}))
//	md, err := client.Fetch(ctx, "1706.03762")
package arxiv
