package mysql

// -----------------------------------------------------------------------------
// VENUES
// -----------------------------------------------------------------------------

const venueColumns = `
  v.id, v.name, v.name_en, v.category, v.cuisine, v.district, v.address,
  v.description, v.description_en, v.price_range,
  v.rating, v.review_count,
  v.naver_place_id, v.naver_rating, v.naver_review_count,
  v.google_place_id, v.google_rating, v.google_review_count,
  v.popularity_score, v.updated_at`

const getVenueSQL = `SELECT` + venueColumns + `
FROM venues v
WHERE v.id = ?
`

// listVenuesPrefix is completed with optional filters, then the order and an
// optional LIMIT.
const listVenuesPrefix = `SELECT` + venueColumns + `
FROM venues v
WHERE 1=1`

const listVenuesOrder = `
ORDER BY v.popularity_score DESC, v.name, v.id`

const listOwnedVenuesSQL = `SELECT` + venueColumns + `
FROM venues v
JOIN venue_owners o ON o.venue_id = v.id
WHERE o.user_id = ?
ORDER BY v.name, v.id
`

const updateSourcesSQL = `
UPDATE venues SET
  naver_place_id      = ?,
  naver_rating        = ?,
  naver_review_count  = ?,
  google_place_id     = ?,
  google_rating       = ?,
  google_review_count = ?
WHERE id = ?
`

const updatePopularitySQL = `UPDATE venues SET popularity_score = ? WHERE id = ?`

const lockVenueSQL = `SELECT id FROM venues WHERE id = ? FOR UPDATE`

// Zero reviews yields 0/0, never NULL.
const nativeAggregateSQL = `
SELECT COALESCE(ROUND(AVG(rating), 1), 0), COUNT(*)
FROM reviews
WHERE venue_id = ?
`

const updateNativeAggregateSQL = `UPDATE venues SET rating = ?, review_count = ? WHERE id = ?`

// -----------------------------------------------------------------------------
// OWNERS
// -----------------------------------------------------------------------------

const isOwnerSQL = `SELECT COUNT(*) FROM venue_owners WHERE user_id = ? AND venue_id = ?`

const insertOwnerSQL = `
INSERT INTO venue_owners (user_id, venue_id, role)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE role = VALUES(role)
`

// -----------------------------------------------------------------------------
// REVIEWS & RESPONSES
// -----------------------------------------------------------------------------

const reviewColumns = `r.id, r.venue_id, r.user_id, r.user_name, r.rating, r.comment, r.created_at`

const insertReviewSQL = `
INSERT INTO reviews (id, venue_id, user_id, user_name, rating, comment, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const getReviewSQL = `SELECT ` + reviewColumns + ` FROM reviews r WHERE r.id = ?`

const updateReviewSQL = `UPDATE reviews SET rating = ?, comment = ? WHERE id = ?`

const deleteReviewSQL = `DELETE FROM reviews WHERE id = ?`

const listReviewsSQL = `SELECT ` + reviewColumns + `
FROM reviews r
WHERE r.venue_id = ?
ORDER BY r.created_at DESC, r.id DESC
`

const listReviewsWithResponsesSQL = `
SELECT ` + reviewColumns + `,
  rr.id, rr.owner_user_id, rr.response, rr.created_at, rr.updated_at
FROM reviews r
LEFT JOIN review_responses rr ON rr.review_id = r.id
WHERE r.venue_id = ?
ORDER BY r.created_at DESC, r.id DESC
`

const responseColumns = `id, review_id, venue_id, owner_user_id, response, created_at, updated_at`

const insertResponseSQL = `
INSERT INTO review_responses (id, review_id, venue_id, owner_user_id, response, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const getResponseSQL = `SELECT ` + responseColumns + ` FROM review_responses WHERE id = ?`

const getResponseByReviewSQL = `SELECT ` + responseColumns + ` FROM review_responses WHERE review_id = ?`

const updateResponseSQL = `UPDATE review_responses SET response = ?, updated_at = ? WHERE id = ?`

const deleteResponseSQL = `DELETE FROM review_responses WHERE id = ?`

// -----------------------------------------------------------------------------
// INSIGHTS
// -----------------------------------------------------------------------------

const insightColumns = `
  id, venue_id,
  review_insights, review_insights_en,
  best_for, best_for_en,
  cultural_tips, cultural_tips_en,
  first_timer_tips, first_timer_tips_en,
  last_updated`

const getInsightSQL = `SELECT` + insightColumns + `
FROM venue_insights
WHERE venue_id = ?
`

// uq_insights_venue makes a second concurrent insert a no-op.
const insertInsightIgnoreSQL = `
INSERT IGNORE INTO venue_insights
  (id, venue_id, review_insights, review_insights_en, best_for, best_for_en,
   cultural_tips, cultural_tips_en, first_timer_tips, first_timer_tips_en, last_updated)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const upsertInsightSQL = `
INSERT INTO venue_insights
  (id, venue_id, review_insights, review_insights_en, best_for, best_for_en,
   cultural_tips, cultural_tips_en, first_timer_tips, first_timer_tips_en, last_updated)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  review_insights     = VALUES(review_insights),
  review_insights_en  = VALUES(review_insights_en),
  best_for            = VALUES(best_for),
  best_for_en         = VALUES(best_for_en),
  cultural_tips       = VALUES(cultural_tips),
  cultural_tips_en    = VALUES(cultural_tips_en),
  first_timer_tips    = VALUES(first_timer_tips),
  first_timer_tips_en = VALUES(first_timer_tips_en),
  last_updated        = VALUES(last_updated)
`

// -----------------------------------------------------------------------------
// PROMOTIONS / MENUS / IMAGES
// -----------------------------------------------------------------------------

const promotionColumns = `
  id, venue_id, title, title_en, description, description_en,
  discount_type, discount_value, start_date, end_date, is_active, created_at`

const insertPromotionSQL = `
INSERT INTO promotions
  (id, venue_id, title, title_en, description, description_en,
   discount_type, discount_value, start_date, end_date, is_active, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getPromotionSQL = `SELECT` + promotionColumns + ` FROM promotions WHERE id = ?`

const updatePromotionSQL = `
UPDATE promotions SET
  title          = ?,
  title_en       = ?,
  description    = ?,
  description_en = ?,
  discount_type  = ?,
  discount_value = ?,
  start_date     = ?,
  end_date       = ?,
  is_active      = ?
WHERE id = ?
`

const deletePromotionSQL = `DELETE FROM promotions WHERE id = ?`

const listPromotionsSQL = `SELECT` + promotionColumns + `
FROM promotions
WHERE venue_id = ?
ORDER BY created_at DESC, id DESC
`

const menuColumns = `
  id, venue_id, name, name_en, description, price,
  is_popular, is_recommended, display_order, created_at`

const insertMenuSQL = `
INSERT INTO menus
  (id, venue_id, name, name_en, description, price, is_popular, is_recommended, display_order, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getMenuSQL = `SELECT` + menuColumns + ` FROM menus WHERE id = ?`

const updateMenuSQL = `
UPDATE menus SET
  name           = ?,
  name_en        = ?,
  description    = ?,
  price          = ?,
  is_popular     = ?,
  is_recommended = ?,
  display_order  = ?
WHERE id = ?
`

const deleteMenuSQL = `DELETE FROM menus WHERE id = ?`

const listMenusSQL = `SELECT` + menuColumns + `
FROM menus
WHERE venue_id = ?
ORDER BY display_order, created_at, id
`

const imageColumns = `id, venue_id, url, caption, display_order, created_at`

const insertImageSQL = `
INSERT INTO venue_images (id, venue_id, url, caption, display_order, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const getImageSQL = `SELECT ` + imageColumns + ` FROM venue_images WHERE id = ?`

const updateImageOrderSQL = `UPDATE venue_images SET display_order = ? WHERE id = ?`

const deleteImageSQL = `DELETE FROM venue_images WHERE id = ?`

const listImagesSQL = `SELECT ` + imageColumns + `
FROM venue_images
WHERE venue_id = ?
ORDER BY display_order, created_at, id
`
